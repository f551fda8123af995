package mitra

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/filter"
	"github.com/mitrahub/mitra/model"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 100
	verificationLimit  = 500
	defaultSearchLimit = 10
	searchCandidates   = 200
)

// ListPartners returns partners matching filters, newest first unless opts says otherwise.
func (m *Mitra) ListPartners(ctx context.Context, filters *filter.QueryFilterSet, opts *filter.QueryOptions, limit, offset int) ([]model.Partner, error) {
	ctx, span := tracer.Start(ctx, "ListPartners")
	defer span.End()

	limit, offset = model.PageWindow(limit, offset, defaultListLimit, maxListLimit)
	partners, err := m.datasource.GetAllPartners(ctx, filters, opts, limit, offset)
	if err != nil {
		return nil, logAndRecordError(span, "list partners failed: ", err)
	}
	return partners, nil
}

// ListPartnersByVerification returns every partner in the given verification
// state. Unverified partners come newest first, verified ones by name.
func (m *Mitra) ListPartnersByVerification(ctx context.Context, state model.VerificationStatus) ([]model.Partner, error) {
	if !state.Valid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown verification status '%s'", state), nil)
	}

	filters := (&filter.QueryFilterSet{}).Add("verification_status", filter.OpEqual, string(state))
	opts := &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}
	if state == model.PartnerVerified {
		opts = &filter.QueryOptions{SortBy: "name", SortOrder: filter.SortAsc}
	}
	return m.datasource.GetAllPartners(ctx, filters, opts, verificationLimit, 0)
}

// SearchPartners finds partners whose name is close to query. Candidates are
// narrowed in SQL and ranked here by edit distance.
func (m *Mitra) SearchPartners(ctx context.Context, query string, limit int) ([]model.Partner, error) {
	ctx, span := tracer.Start(ctx, "SearchPartners")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "search query is required", nil)
	}
	limit, _ = model.PageWindow(limit, 0, defaultSearchLimit, maxListLimit)

	candidates, err := m.datasource.SearchPartnersByName(ctx, searchTerms(query), searchCandidates)
	if err != nil {
		return nil, logAndRecordError(span, "partner search failed: ", err)
	}

	ranked := rankByName(query, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	logrus.WithFields(logrus.Fields{"query": query, "candidates": len(candidates), "results": len(ranked)}).Debug("partner search")
	return ranked, nil
}

// searchTerms splits a query into the ILIKE patterns used to pick candidates.
// Short prefixes of longer words keep misspelled names in the candidate set.
func searchTerms(query string) []string {
	seen := map[string]bool{}
	var terms []string
	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	for _, word := range strings.Fields(query) {
		add(word)
		if runes := []rune(word); len(runes) > 3 {
			add(string(runes[:3]))
		}
	}
	return terms
}

// nameDistance is the edit distance between query and a name. Names containing
// the query, or contained in it, count as exact.
func nameDistance(query, name string) int {
	name = strings.ToLower(name)
	if strings.Contains(name, query) || strings.Contains(query, name) {
		return 0
	}
	best := levenshtein.DistanceForStrings([]rune(query), []rune(name), levenshtein.DefaultOptions)
	for _, word := range strings.Fields(name) {
		if d := levenshtein.DistanceForStrings([]rune(query), []rune(word), levenshtein.DefaultOptions); d < best {
			best = d
		}
	}
	return best
}

func rankByName(query string, partners []model.Partner) []model.Partner {
	type scored struct {
		partner  model.Partner
		distance int
	}
	results := make([]scored, 0, len(partners))
	for _, p := range partners {
		results = append(results, scored{partner: p, distance: nameDistance(query, p.Name)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].distance != results[j].distance {
			return results[i].distance < results[j].distance
		}
		return strings.ToLower(results[i].partner.Name) < strings.ToLower(results[j].partner.Name)
	})

	ranked := make([]model.Partner, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, r.partner)
	}
	return ranked
}

func (m *Mitra) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	return m.datasource.GetPartnerByID(ctx, id)
}

// ListCredits returns a partner's credit history, newest first.
func (m *Mitra) ListCredits(ctx context.Context, partnerID string, limit, offset int) ([]model.Credit, error) {
	ctx, span := tracer.Start(ctx, "ListCredits")
	defer span.End()

	if _, err := m.datasource.GetPartnerByID(ctx, partnerID); err != nil {
		return nil, err
	}
	limit, offset = model.PageWindow(limit, offset, defaultListLimit, maxListLimit)
	filters := (&filter.QueryFilterSet{}).Add("partner_id", filter.OpEqual, partnerID)
	credits, err := m.datasource.GetCredits(ctx, filters, &filter.QueryOptions{SortBy: "created_at", SortOrder: filter.SortDesc}, limit, offset)
	if err != nil {
		return nil, logAndRecordError(span, "list credits failed: ", err)
	}
	return credits, nil
}

// VerifyPartner marks an unverified partner as verified.
func (m *Mitra) VerifyPartner(ctx context.Context, id string) (*model.Partner, error) {
	ctx, span := tracer.Start(ctx, "VerifyPartner")
	defer span.End()
	span.SetAttributes(attribute.String("partner.id", id))

	partner, err := m.datasource.VerifyPartner(ctx, id)
	if err != nil {
		return nil, logAndRecordError(span, "verify partner failed: ", err)
	}
	logrus.WithField("partner_id", id).Info("partner verified")
	m.postActions(EventPartnerVerified, partner, true)
	return partner, nil
}

// DeletePartner removes a partner with no pending top-ups, along with its history.
func (m *Mitra) DeletePartner(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "DeletePartner")
	defer span.End()
	span.SetAttributes(attribute.String("partner.id", id))

	if err := m.datasource.DeletePartner(ctx, id); err != nil {
		return logAndRecordError(span, "delete partner failed: ", err)
	}
	logrus.WithField("partner_id", id).Info("partner deleted")
	m.postActions(EventPartnerDeleted, map[string]string{"partner_id": id}, true)
	return nil
}
