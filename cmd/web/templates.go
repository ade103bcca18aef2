package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dubovds/workout-tracker/internal/contexthelpers"
)

// BaseTemplateData is embedded in the data of every page.
type BaseTemplateData struct {
	User        string
	CurrentPath string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		User:        contexthelpers.AuthenticatedUser(r.Context()),
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
	}
}

// findModuleDir locates the directory containing the go.mod file.
func findModuleDir() (string, error) {
	var (
		dir string
		err error
	)
	dir, err = os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			break
		}
		dir = parentDir
	}

	return "", os.ErrNotExist
}

// resolveAndVerifyTemplatePath resolves the template path and verifies it.
//
// If the templatePath is empty, it will attempt to find it from the module root.
func resolveAndVerifyTemplatePath(templatePath string) (string, error) {
	var err error
	if templatePath == "" {
		var modulePath string
		if modulePath, err = findModuleDir(); err != nil {
			return "", fmt.Errorf("find module dir: %w", err)
		}
		templatePath = filepath.Join(modulePath, "ui", "templates")
	}
	var stat os.FileInfo
	if stat, err = os.Stat(templatePath); err != nil {
		return "", fmt.Errorf("template path not found %s: %w", templatePath, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("template path is not a directory: %s", templatePath)
	}
	return templatePath, nil
}

// formatFloat formats a float without trailing zeros. It hides rounding noise like 60.900000000000006.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatWeight renders an optional weight, "--" standing in for missing history.
func formatWeight(w *float64) string {
	if w == nil {
		return "--"
	}
	return formatFloat(*w)
}

// baseTemplateFuncs returns the FuncMap used while parsing. nonce is replaced per request in contextTemplateFuncs.
func (app *application) baseTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			panic("not implemented")
		},
		"formatFloat":  formatFloat,
		"formatWeight": formatWeight,
		"inc":          func(i int) int { return i + 1 },
	}
}

func (app *application) contextTemplateFuncs(ctx context.Context) template.FuncMap {
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
	}
}

// pageTemplate returns a template for the given page name.
//
// pageName corresponds to directory inside ui/templates/pages folder. It has to include a template named "page".
func (app *application) pageTemplate(pageName string) (*template.Template, error) {
	t, err := template.New(pageName).Funcs(app.baseTemplateFuncs()).
		ParseFS(app.templateFS, "base.gohtml", fmt.Sprintf("pages/%s/*.gohtml", pageName))
	if err != nil {
		return nil, fmt.Errorf("new template: %w", err)
	}
	return t, nil
}

func (app *application) renderToBuf(ctx context.Context, file string, data any) (*bytes.Buffer, error) {
	t, err := app.pageTemplate(file)
	if err != nil {
		return nil, fmt.Errorf("retrieve page template %s: %w", file, err)
	}

	buf := new(bytes.Buffer)
	t.Funcs(app.contextTemplateFuncs(ctx))
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", file, err)
	}

	return buf, nil
}

// render renders the template residing in ui/templates/pages/{pageName} and writes it to the response writer.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, pageName string, data any) {
	buf, err := app.renderToBuf(r.Context(), pageName, data)
	if err != nil {
		if pageName == "error" {
			// Avoid recursing through serverError when the error page itself is broken.
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}
