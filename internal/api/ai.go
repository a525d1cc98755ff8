package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepia/tutor/internal/conversation"
	"github.com/prepia/tutor/internal/tutor"
)

// Explain handles POST /api/ai/explain.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	var req tutor.ExplainRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	exp, err := h.svc.Explain(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.Explanation
	}{true, exp})
}

// AdaptiveQuestion handles POST /api/ai/adaptive-question.
func (h *Handler) AdaptiveQuestion(w http.ResponseWriter, r *http.Request) {
	var req tutor.AdaptiveQuestionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	q, err := h.svc.AdaptiveQuestion(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.AdaptiveQuestion
	}{true, q})
}

// Chat handles POST /api/ai/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req tutor.ChatRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	reply, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.ChatReply
	}{true, reply})
}

// Transcript handles GET /api/ai/chat/{userID}.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	turns, _ := h.svc.Conversations().Read(chi.URLParam(r, "userID"))
	if turns == nil {
		turns = []conversation.Turn{}
	}
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"turns":   turns,
	})
}

// ClearTranscript handles DELETE /api/ai/chat/{userID}.
func (h *Handler) ClearTranscript(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.svc.Conversations().Clear(r.Context(), userID); err != nil {
		h.fail(w, r, &tutor.Error{Kind: tutor.KindCollaboratorUnavailable, Op: "clear-chat", Err: err})
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true})
}

// AnalyzePatterns handles GET /api/ai/analyze/{userID}.
func (h *Handler) AnalyzePatterns(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AnalyzePatterns(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.Analysis
	}{true, a})
}

// StudyPlan handles POST /api/ai/study-plan.
func (h *Handler) StudyPlan(w http.ResponseWriter, r *http.Request) {
	var req tutor.StudyPlanRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	plan, err := h.svc.StudyPlan(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.StudyPlan
	}{true, plan})
}

// Feedback handles GET /api/ai/feedback/{userID}.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	fb, err := h.svc.Feedback(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*tutor.Feedback
	}{true, fb})
}
