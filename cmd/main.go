/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mitrahub/mitra"
	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/database"
	"github.com/mitrahub/mitra/internal/notification"
)

// Mitra represents the CLI application, encapsulating the root Cobra command.
type Mitra struct {
	cmd *cobra.Command
}

// mitraInstance holds the service and its configuration for the subcommands.
type mitraInstance struct {
	mitra      *mitra.Mitra
	cnf        *config.Configuration
	configFile string
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration file named by --config and builds the service
// before any subcommand runs. The config command only needs the configuration.
func preRun(app *mitraInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(app.configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf
		if cmd.Name() == "config" {
			return nil
		}

		newMitra, err := setupMitra(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.mitra = newMitra
		return nil
	}
}

// setupMitra connects to the database and creates the service.
func setupMitra(cfg *config.Configuration) (*mitra.Mitra, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newMitra, err := mitra.NewMitra(db)
	if err != nil {
		return nil, fmt.Errorf("error creating mitra: %v", err)
	}
	return newMitra, nil
}

// NewCLI creates the root command and its subcommands.
func NewCLI() *Mitra {
	m := &mitraInstance{}

	var rootCmd = &cobra.Command{
		Use:   "mitra",
		Short: "Partner top-up and balance administration",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&m.configFile, "config", "./mitra.json", "Configuration file for mitra")
	rootCmd.PersistentPreRunE = preRun(m)

	rootCmd.AddCommand(serverCommands(m))
	rootCmd.AddCommand(workerCommands(m))
	rootCmd.AddCommand(migrateCommands(m))
	rootCmd.AddCommand(configCommands())

	return &Mitra{cmd: rootCmd}
}

func (w Mitra) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
