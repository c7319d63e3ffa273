package gantry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoEngine is returned by Render when the app was configured without a
// view engine.
var ErrNoEngine = errors.New("gantry: no view engine configured")

// ViewEngine loads and renders templates from the application's views
// directory. Templates are parsed once in production and re-parsed on every
// render in development, so edits show up without a restart.
type ViewEngine struct {
	dir    string
	ext    string
	reload bool

	mu  sync.RWMutex
	tpl *template.Template
}

// newViewEngine creates a view engine over <appRoot>/application/views for
// templates with the given extension (without the dot).
func newViewEngine(appRoot, ext string, reload bool) (*ViewEngine, error) {
	e := &ViewEngine{
		dir:    filepath.Join(appRoot, "application", "views"),
		ext:    ext,
		reload: reload,
	}
	if !reload {
		tpl, err := e.parse()
		if err != nil {
			return nil, err
		}
		e.tpl = tpl
	}
	return e, nil
}

// parse loads every template under the views directory, including nested
// folders. Template names are slash-relative to the views directory, e.g.
// "users/profile.html". A missing or empty views directory yields an empty
// template set rather than an error.
func (e *ViewEngine) parse() (*template.Template, error) {
	root := template.New("")

	if _, err := os.Stat(e.dir); err != nil {
		if os.IsNotExist(err) {
			return root, nil
		}
		return nil, fmt.Errorf("gantry: views directory: %w", err)
	}

	err := filepath.WalkDir(e.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != "."+e.ext {
			return nil
		}
		rel, err := filepath.Rel(e.dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gantry: loading views: %w", err)
	}
	return root, nil
}

// templates returns the parsed template set, re-parsing first when reload
// mode is on.
func (e *ViewEngine) templates() (*template.Template, error) {
	if e.reload {
		return e.parse()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tpl, nil
}

// Render executes the named template into w. Output is buffered so a template
// error never produces a half-written response.
func (e *ViewEngine) Render(w http.ResponseWriter, name string, data any) error {
	tpl, err := e.templates()
	if err != nil {
		return err
	}

	t := tpl.Lookup(name)
	if t == nil {
		return fmt.Errorf("gantry: template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("gantry: rendering %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

type viewCtxKey struct{}

// withViewEngine attaches the engine to the request context so handlers can
// call the package-level Render.
func withViewEngine(engine *ViewEngine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), viewCtxKey{}, engine)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EngineFromRequest returns the view engine attached to the request, if any.
func EngineFromRequest(r *http.Request) (*ViewEngine, bool) {
	e, ok := r.Context().Value(viewCtxKey{}).(*ViewEngine)
	return e, ok
}

// Render executes the named template for the request's app. It returns
// ErrNoEngine when the app was built without a view engine.
func Render(w http.ResponseWriter, r *http.Request, name string, data any) error {
	e, ok := EngineFromRequest(r)
	if !ok {
		return ErrNoEngine
	}
	return e.Render(w, name, data)
}
