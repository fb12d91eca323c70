// Command srtools scaffolds a starter SRouterTools project.
//
//	srtools --template
//
// prompts for a folder name and writes a project with a documented router,
// an example route module and an entry point that enables CORS.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const namespace = "SRTOOLS"

// config holds the command line flags.
type config struct {
	Template bool `conf:"default:false,short:t,help:Write a starter project layout into a new folder"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(os.Args[1:], ".", os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("srtools failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, root string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	var cfg config
	if err := conf.Parse(args, namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return printUsage(out, &cfg)
		}
		return errors.Wrap(err, "parsing config")
	}

	if !cfg.Template {
		return printUsage(out, &cfg)
	}

	fmt.Fprint(out, "Name of folder: ")
	name, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "reading folder name")
	}
	name = strings.TrimSpace(name)

	files, err := Scaffold(root, name)
	if err != nil {
		return err
	}
	for _, f := range files {
		logger.Info("File written", zap.String("path", f))
	}
	fmt.Fprintf(out, "Created %s. Run `go mod tidy` inside it to fetch dependencies.\n", name)
	return nil
}

func printUsage(out io.Writer, cfg *config) error {
	usage, err := conf.Usage(namespace, cfg)
	if err != nil {
		return errors.Wrap(err, "generating usage")
	}
	fmt.Fprintln(out, usage)
	return nil
}
