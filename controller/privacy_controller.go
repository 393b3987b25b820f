package controller

import (
	"html/template"
	"net/http"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/health-assistant-rag/templates"
	"go.uber.org/zap"
)

type privacyPolicyData struct {
	LastUpdated     string
	CardDigitsKept  int
	QueriesRetained bool
}

// PrivacyController serves the privacy policy linked from the assistant and
// the order form.
type PrivacyController struct {
	tmpl *template.Template
	now  func() time.Time
}

func ProvidePrivacyController() *PrivacyController {
	return &PrivacyController{
		tmpl: template.Must(template.ParseFS(templates.FS, "privacy_policy.html")),
		now:  time.Now,
	}
}

func (pc *PrivacyController) HandlePrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	data := privacyPolicyData{
		LastUpdated:     pc.now().Format("January 2006"),
		CardDigitsKept:  4,
		QueriesRetained: false,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if err := pc.tmpl.Execute(w, data); err != nil {
		logger.Error("Failed to execute privacy policy template", zap.Error(err))
		// Note: Can't call http.Error here as headers may already be written
		return
	}
}

func (pc *PrivacyController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/privacy-policy",
			Method:  http.MethodGet,
			Handler: pc.HandlePrivacyPolicy,
		},
	}
}
