package dashboard

import (
	"embed"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	SpinnerPath     = "/demo/spinner"
	TextOnClickPath = "/demo/text-onclick"
)

type spinnerPage struct {
	Path              string
	ModalOpen         bool
	ModalKey          string
	Title             string
	MaxWidth          int
	SpinnerText       string
	Note              string
	CloseAfterSeconds int
}

type textOnClickPage struct {
	Path      string
	ButtonKey string
	Label     string
	Clicked   bool
}

// Handler serves the demo pages
type Handler struct {
	modalDelay time.Duration
}

func NewHandler(modalDelay time.Duration) *Handler {
	return &Handler{modalDelay: modalDelay}
}

// Register mounts the demo pages on router
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc(SpinnerPath, h.HandleSpinner).Methods("GET", "POST")
	router.HandleFunc(TextOnClickPath, h.HandleTextOnClick).Methods("GET", "POST")
}

// HandleSpinner shows a button that opens a "please wait" modal. The modal
// closes itself by reloading the page once the delay has passed.
func (h *Handler) HandleSpinner(w http.ResponseWriter, r *http.Request) {
	page := spinnerPage{
		Path:              SpinnerPath,
		ModalKey:          "testModal",
		Title:             "Please wait",
		MaxWidth:          500,
		SpinnerText:       "잠시만 기다려주세요...",
		Note:              "이 작업은 몇 분 정도 걸릴 수 있습니다.",
		CloseAfterSeconds: int(math.Ceil(h.modalDelay.Seconds())),
	}

	if r.Method == http.MethodPost && r.FormValue("spin") != "" {
		logger.Debug(logger.DASHBOARD, "Opening modal %s for %s", page.ModalKey, h.modalDelay)
		page.ModalOpen = true
	}

	render(w, "spinner.html", page)
}

// HandleTextOnClick shows a primary button styled as plain text and reports
// when it was clicked.
func (h *Handler) HandleTextOnClick(w http.ResponseWriter, r *http.Request) {
	page := textOnClickPage{
		Path:      TextOnClickPath,
		ButtonKey: "testBtn",
		Label:     "Click me",
	}
	page.Clicked = r.Method == http.MethodPost && r.FormValue(page.ButtonKey) != ""

	render(w, "text_onclick.html", page)
}

func render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error(logger.DASHBOARD, "Failed to render %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
