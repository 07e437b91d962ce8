package main

import (
	"fmt"
	"os"

	"fjacquet/bank-recon/cmd/batch"
	"fjacquet/bank-recon/cmd/configs"
	"fjacquet/bank-recon/cmd/importcmd"
	"fjacquet/bank-recon/cmd/parse"
	"fjacquet/bank-recon/cmd/recon"
	"fjacquet/bank-recon/cmd/report"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/cmd/run"
	"fjacquet/bank-recon/cmd/statements"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(statements.Cmd)
	root.Cmd.AddCommand(configs.Cmd)
	root.Cmd.AddCommand(recon.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(run.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
