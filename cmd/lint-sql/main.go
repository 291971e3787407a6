package main

import (
	"github.com/alecthomas/kong"
	"github.com/lintsql/lint-sql/pkg/lint"
)

type CLI struct {
	lint.Lint `cmd:"" default:"withargs" help:"Lint an SQL file."`
}

var cli CLI

var options = []kong.Option{
	kong.Name("lint-sql"),
	kong.Description("Lint an SQL file."),
}

func main() {
	ctx := kong.Parse(&cli, options...)
	ctx.FatalIfErrorf(ctx.Run())
}
