package main

import (
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// projectFile is one file of the starter project.
type projectFile struct {
	path string
	tmpl *template.Template
}

var projectFiles = []projectFile{
	{path: "go.mod", tmpl: template.Must(template.New("go.mod").Parse(goModTemplate))},
	{path: filepath.Join("app", "app.go"), tmpl: template.Must(template.New("app").Parse(appTemplate))},
	{path: filepath.Join("apps", "example.go"), tmpl: template.Must(template.New("example").Parse(exampleTemplate))},
	{path: "main.go", tmpl: template.Must(template.New("main").Parse(mainTemplate))},
}

// Scaffold creates the folder name under root and writes the starter project
// into it. It fails if the folder already exists. The returned paths are the
// files written.
func Scaffold(root, name string) ([]string, error) {
	if name == "" {
		return nil, errors.New("folder name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errors.Errorf("invalid folder name %q", name)
	}

	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}

	data := struct{ Module string }{Module: name}
	written := make([]string, 0, len(projectFiles))
	for _, pf := range projectFiles {
		path := filepath.Join(dir, pf.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, errors.Wrapf(err, "creating %s", filepath.Dir(path))
		}

		f, err := os.Create(path)
		if err != nil {
			return written, errors.Wrapf(err, "creating %s", path)
		}
		err = pf.tmpl.Execute(f, data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return written, errors.Wrapf(err, "writing %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}

const goModTemplate = `module {{.Module}}

go 1.24.0
`

const appTemplate = `// Package app holds the application router.
package app

import (
	"github.com/Suhaibinator/SRouterTools/pkg/docs"
	"github.com/Suhaibinator/SRouterTools/pkg/router"
	"go.uber.org/zap"
)

// New creates the router and a registrar that documents every route
// registered through it.
func New(logger *zap.Logger) (*router.Router, *docs.Registrar, error) {
	r, err := router.NewRouter(router.RouterConfig{
		Logger:        logger,
		EnableTraceID: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, docs.Prefix(r), nil
}
`

const exampleTemplate = `package apps

import (
	"github.com/Suhaibinator/SRouterTools/pkg/docs"
	"github.com/Suhaibinator/SRouterTools/pkg/router"
)

// RegisterExample registers the example routes.
func RegisterExample(routes *docs.Registrar) {
	routes.GET("/home", docs.Func("Says hi.", func(c *router.Call) (any, error) {
		return "hi", nil
	}))
}
`

const mainTemplate = `package main

import (
	"net/http"

	"{{.Module}}/app"
	"{{.Module}}/apps"

	"github.com/Suhaibinator/SRouterTools/pkg/cors"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	r, routes, err := app.New(logger)
	if err != nil {
		logger.Fatal("Failed to create router", zap.Error(err))
	}

	apps.RegisterExample(routes)
	// add other apps here

	cors.Add(r)

	logger.Info("Listening", zap.String("addr", ":8080"))
	if err := http.ListenAndServe(":8080", r); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
`
