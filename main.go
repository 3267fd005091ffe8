package main

import (
	"fmt"
	"os"

	"fjacquet/ekstre-csv/cmd/admin"
	"fjacquet/ekstre-csv/cmd/batch"
	"fjacquet/ekstre-csv/cmd/classify"
	"fjacquet/ekstre-csv/cmd/convert"
	"fjacquet/ekstre-csv/cmd/formats"
	"fjacquet/ekstre-csv/cmd/history"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(convert.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(classify.Cmd)
	root.Cmd.AddCommand(formats.Cmd)
	root.Cmd.AddCommand(history.Cmd)
	root.Cmd.AddCommand(admin.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
