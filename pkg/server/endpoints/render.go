package endpoints

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
)

//go:embed templates/*.html.tmpl
var templateFiles embed.FS

var (
	dashboardTemplate = template.Must(template.ParseFS(templateFiles, "templates/layout.html.tmpl", "templates/dashboard.html.tmpl"))
	reportTemplate    = template.Must(template.ParseFS(templateFiles, "templates/layout.html.tmpl", "templates/report.html.tmpl"))
)

// GitHub flavoured markdown without raw HTML passthrough
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Bounds are the form limits shared by the dashboard and /api/breeds
type Bounds struct {
	MinAge         float64 `json:"min_age"`
	MaxAge         float64 `json:"max_age"`
	MinWeight      float64 `json:"min_weight"`
	MaxWeight      float64 `json:"max_weight"`
	Step           float64 `json:"step"`
	MinSensitivity int     `json:"min_sensitivity"`
	MaxSensitivity int     `json:"max_sensitivity"`
	MinCarTemp     int     `json:"min_car_temp"`
	MaxCarTemp     int     `json:"max_car_temp"`
	DefaultCarTemp int     `json:"default_car_temp"`
}

func formBounds() Bounds {
	return Bounds{
		MinAge:         pet.MinAge,
		MaxAge:         pet.MaxAge,
		MinWeight:      pet.MinWeight,
		MaxWeight:      pet.MaxWeight,
		Step:           pet.Step,
		MinSensitivity: pet.MinSensitivity,
		MaxSensitivity: pet.MaxSensitivity,
		MinCarTemp:     monitor.MinCarTemp,
		MaxCarTemp:     monitor.MaxCarTemp,
		DefaultCarTemp: monitor.DefaultCarTemp,
	}
}

type dashboardData struct {
	Version       string
	Scenarios     []scenario.Scenario
	Default       string
	Pet           pet.Profile
	Breeds        []string
	Bounds        Bounds
	Runs          []*monitor.Report
	TokenRequired bool
}

type reportData struct {
	Report      *monitor.Report
	Duration    time.Duration
	FinalReport template.HTML
}

// renderMarkdown converts agent markdown to HTML. goldmark drops raw HTML
// unless html.WithUnsafe is set, so the output is safe to embed.
func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func renderHTML(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
