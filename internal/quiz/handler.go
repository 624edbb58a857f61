package quiz

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rumo-app/rumo/internal/shared"
)

// Handler wires the questionnaire JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the protected questionnaire API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/perguntas", h.handlePerguntas)
	r.Post("/salvar-resultado", h.handleSalvarResultado)
	r.Get("/meus-resultados", h.handleMeusResultados)
}

func (h *Handler) handlePerguntas(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	if err != nil {
		h.logger.Error("load questions", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "erro ao buscar perguntas"})
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type salvarResultadoRequest struct {
	Informatica int `json:"informatica"`
	Web         int `json:"web"`
	Manutencao  int `json:"manutencao"`
	Dados       int `json:"dados"`
}

func (h *Handler) handleSalvarResultado(w http.ResponseWriter, r *http.Request) {
	candidatoID, ok := sessionCandidate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "usuário não autenticado"})
		return
	}
	var req salvarResultadoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "corpo da requisição inválido"})
		return
	}
	scores := Scores{Informatica: req.Informatica, Web: req.Web, Manutencao: req.Manutencao, Dados: req.Dados}
	result, err := h.service.SaveResult(r.Context(), candidatoID, scores)
	if err != nil {
		h.logger.Error("save result", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "erro ao salvar resultado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Resultado registrado com sucesso!",
		"curso_recomendado": result.CursoRecomendado,
	})
}

type resultadoView struct {
	ID          int64  `json:"id_resultado"`
	Realizacao  string `json:"data_realizacao"`
	Informatica int    `json:"pontuacao_informatica"`
	Web         int    `json:"pontuacao_web"`
	Manutencao  int    `json:"pontuacao_manutencao"`
	Dados       int    `json:"pontuacao_dados"`
	Curso       string `json:"curso_recomendado"`
}

func (h *Handler) handleMeusResultados(w http.ResponseWriter, r *http.Request) {
	candidatoID, ok := sessionCandidate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "usuário não autenticado"})
		return
	}
	results, err := h.service.MyResults(r.Context(), candidatoID)
	if err != nil {
		h.logger.Error("list results", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "erro ao buscar resultados"})
		return
	}
	views := make([]resultadoView, 0, len(results))
	for _, res := range results {
		views = append(views, resultadoView{
			ID:          res.ID,
			Realizacao:  res.RealizadoEm.Format("02/01/2006 15:04"),
			Informatica: res.Scores.Informatica,
			Web:         res.Scores.Web,
			Manutencao:  res.Scores.Manutencao,
			Dados:       res.Scores.Dados,
			Curso:       res.CursoRecomendado,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func sessionCandidate(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
