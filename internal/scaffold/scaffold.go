// Package scaffold generates new Gantry project trees for the CLI.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// ModulePath is the Go module path.
	ModulePath string

	// Description is a short project description.
	Description string

	// Port is the default listen port written to .env.
	Port int
}

// Template represents a project template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files is a map of relative paths to file contents. Contents are
	// text/template bodies executed against Config.
	Files map[string]string

	// Dirs lists directories created empty (with a .gitkeep).
	Dirs []string
}

var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"full":    fullTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("scaffold: template %q not found (available: %v)", name, List())
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create generates a project from the template.
func (t *Template) Create(dir string, cfg Config) error {
	for _, sub := range t.Dirs {
		full := filepath.Join(dir, filepath.FromSlash(sub))
		if err := os.MkdirAll(full, 0o755); err != nil {
			return err
		}
		keep := filepath.Join(full, ".gitkeep")
		if err := os.WriteFile(keep, nil, 0o644); err != nil {
			return err
		}
	}

	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return fmt.Errorf("scaffold: invalid template %s: %w", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return fmt.Errorf("scaffold: rendering %s: %w", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// appDirs is the conventional application layout shared by all templates.
var appDirs = []string{
	"application/adapters",
	"application/controllers",
	"application/models",
	"application/public",
	"application/views",
}

func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "Just the essentials for a Gantry app",
		Dirs:        appDirs,
		Files: map[string]string{
			"main.go": `package main

import (
	"log"
	"net/http"

	"github.com/gantry-dev/gantry"
	"github.com/go-chi/chi/v5"
)

func main() {
	cfg, err := gantry.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	app, err := gantry.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app.Route("/", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{{.ProjectName}} is running"))
		})
	})

	app.MountDefaultHandlers()
	log.Fatal(app.Run())
}
`,
			"go.mod": `module {{.ModulePath}}

go 1.23

require (
	github.com/gantry-dev/gantry v0.3.0
	github.com/go-chi/chi/v5 v5.2.3
)
`,
			".env": `PORT={{.Port}}
GANTRY_ENV=development
`,
			".gitignore": `.env
/{{.ProjectName}}
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

Run it:

    go run .

Then open http://localhost:{{.Port}}.
`,
		},
	}
}

func fullTemplate() *Template {
	t := minimalTemplate()
	t.Name = "full"
	t.Description = "Starter with views, sessions, and an example controller"

	t.Files["main.go"] = `package main

import (
	"log"

	"github.com/gantry-dev/gantry"

	"{{.ModulePath}}/application/controllers"
)

func main() {
	cfg, err := gantry.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg.ViewEngine = "html"

	app, err := gantry.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app.Route("/", controllers.Home)

	app.MountDefaultHandlers()
	log.Fatal(app.Run())
}
`
	t.Files["application/controllers/home.go"] = `package controllers

import (
	"net/http"

	"github.com/gantry-dev/gantry"
	"github.com/go-chi/chi/v5"
)

// Home serves the landing page.
func Home(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		data := map[string]string{"Title": "{{.ProjectName}}"}
		if err := gantry.Render(w, req, "index.html", data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
`
	t.Files["application/views/index.html"] = `<!doctype html>
<html>
<head>
  <title>{{"{{"}}.Title{{"}}"}}</title>
  <link rel="stylesheet" href="/public/site.css">
</head>
<body>
  <h1>{{"{{"}}.Title{{"}}"}}</h1>
  <p>{{.Description}}</p>
</body>
</html>
`
	t.Files["application/public/site.css"] = `body {
  font-family: system-ui, sans-serif;
  margin: 2rem auto;
  max-width: 40rem;
}
`
	t.Files[".env"] = `PORT={{.Port}}
GANTRY_ENV=development
GANTRY_VIEW_ENGINE=html
# GANTRY_SESSION_REDIS_URL=redis://localhost:6379/0
# GANTRY_SESSION_SECRET=change-me
`
	return t
}
