package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/medical-query-assistant/internal/adapters/web"
)

const maxFormBytes = 64 << 10

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	data := web.PageData{
		MaxLength: rt.maxLength,
		Limit:     rt.defaultLimit,
		Remaining: rt.defaultLimit,
	}
	if sess, ok := existingWebSession(rt.webSessions, r); ok {
		data.Limit, _ = sess.controller.Limiter().Limit()
		data.Remaining = sess.controller.Limiter().Remaining()
		data.Panel = sess.panel.State()
		if notice, ok := sess.notices.Current(); ok {
			data.Notice = &notice
			data.NoticeRemaining = sess.notices.Remaining(notice)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := rt.renderer.RenderPage(w, data); err != nil {
		rt.logger.Error("render_page_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

// submitQuery starts the submission and redirects back to the page once it
// has either finished or put the panel into its loading state. The page
// refreshes itself while loading.
func (rt *Router) submitQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	query := r.PostFormValue("query")

	sess := webSession(rt.webSessions, w, r)
	changed := sess.panel.Changed()
	ctx := context.WithoutCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.controller.HandleQuery(ctx, query)
	}()

	select {
	case <-done:
	case <-changed:
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (rt *Router) clear(w http.ResponseWriter, r *http.Request) {
	if sess, ok := existingWebSession(rt.webSessions, r); ok {
		sess.controller.Clear()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (rt *Router) dismissNotice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err == nil {
		if sess, ok := existingWebSession(rt.webSessions, r); ok {
			sess.notices.Dismiss(r.PostFormValue("id"))
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
