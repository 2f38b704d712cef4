package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/DianaSill/Direct-Debit-Processing-System/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag

		Server        commands.ServerCmd        `cmd:"" help:"Start the enrollment API server"`
		Export        commands.ExportCmd        `cmd:"" help:"Run a single export cycle and exit"`
		LoadCustomers commands.LoadCustomersCmd `cmd:"" name:"load-customers" help:"Load the customer reference dataset from CSV"`
		Bootstrap     commands.BootstrapCmd     `cmd:"" help:"Create local development AWS resources (LocalStack)"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
