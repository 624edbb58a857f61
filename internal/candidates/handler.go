package candidates

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rumo-app/rumo/internal/shared"
	"github.com/rumo-app/rumo/internal/view"
)

// Handler wires HTTP endpoints for candidate administration.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrfManager: csrf}
}

// MountRoutes registers the protected candidate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/listagem", h.showListagem)
	r.Post("/atualizar_usuario", h.handleAtualizar)
	r.Post("/excluir_usuario", h.handleExcluir)
}

// MountAPIRoutes registers the public JSON probes.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Post("/verificar-idade", h.handleVerificarIdade)
}

type listRow struct {
	ID            int64
	Nome          string
	Email         string
	Telefone      string
	Nascimento    string
	NascimentoISO string
	Cadastro      string
	Ativo         bool
	PodeDesativar bool
}

func (h *Handler) showListagem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	cands, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list candidates", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Erro ao carregar listagem, tente novamente."})
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var actorID int64
	if sess != nil {
		actorID, _ = strconv.ParseInt(sess.User(), 10, 64)
	}
	rows := make([]listRow, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, listRow{
			ID:            c.ID,
			Nome:          c.Nome,
			Email:         c.Email,
			Telefone:      FormatTelefone(c.Telefone),
			Nascimento:    c.Nascimento.Format("02/01/2006"),
			NascimentoISO: c.Nascimento.Format("2006-01-02"),
			Cadastro:      c.CadastradoEm.Format("02/01/2006 15:04"),
			Ativo:         c.Ativo,
			PodeDesativar: c.ID != actorID,
		})
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Listagem de Candidatos",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Candidatos": rows},
	}
	if err := h.templates.Render(w, "pages/listagem.html", data); err != nil {
		h.logger.Error("render listagem", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(r.PostFormValue("id_candidato"), 10, 64)
	if err != nil {
		h.flashAndBack(w, r, sess, "error", "Candidato inválido.")
		return
	}

	input := UpdateInput{
		ID:         id,
		Nome:       r.PostFormValue("nome_candidato"),
		Email:      r.PostFormValue("email_candidato"),
		Telefone:   r.PostFormValue("telefone_candidato"),
		Nascimento: r.PostFormValue("data_nascimento_c"),
		Senha:      r.PostFormValue("senha"),
	}
	if err := h.service.Update(r.Context(), input); err != nil {
		h.flashAndBack(w, r, sess, "error", updateMessage(err))
		return
	}
	h.flashAndBack(w, r, sess, "success", "Usuário atualizado com sucesso!")
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(r.PostFormValue("id_candidato"), 10, 64)
	if err != nil {
		h.flashAndBack(w, r, sess, "error", "Candidato inválido.")
		return
	}
	var actorID int64
	if sess != nil {
		actorID, _ = strconv.ParseInt(sess.User(), 10, 64)
	}

	if err := h.service.Deactivate(r.Context(), id, actorID); err != nil {
		switch {
		case errors.Is(err, ErrAutoExclusao):
			h.flashAndBack(w, r, sess, "error", "Você não pode excluir seu próprio usuário!")
		case errors.Is(err, ErrNaoEncontrado):
			h.flashAndBack(w, r, sess, "error", "Usuário não encontrado!")
		default:
			h.logger.Error("deactivate candidate", slog.Any("error", err))
			h.flashAndBack(w, r, sess, "error", "Erro ao excluir usuário, tente novamente.")
		}
		return
	}
	h.flashAndBack(w, r, sess, "success", "Usuário desativado com sucesso!")
}

func (h *Handler) handleVerificarIdade(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "requisição inválida"})
		return
	}
	raw := r.PostFormValue("data_nascimento")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Informe uma data de nascimento"})
		return
	}
	idade, valida, err := h.service.VerificarIdade(raw, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Data de nascimento inválida! Use DD/MM/AAAA"})
		return
	}
	mensagem := fmt.Sprintf("Idade válida: %d anos", idade)
	if !valida {
		mensagem = fmt.Sprintf("Idade insuficiente: %d anos (mínimo: %d anos)", idade, IdadeMinima)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"idade":        idade,
		"idade_valida": valida,
		"mensagem":     mensagem,
		"idade_minima": IdadeMinima,
	})
}

func (h *Handler) flashAndBack(w http.ResponseWriter, r *http.Request, sess *shared.Session, kind, message string) {
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/listagem", http.StatusSeeOther)
}

func updateMessage(err error) string {
	switch {
	case errors.Is(err, ErrNaoEncontrado):
		return "Usuário não encontrado!"
	case errors.Is(err, ErrEmailEmUso):
		return "Este email já está cadastrado."
	case errors.Is(err, ErrNomeObrigatorio), errors.Is(err, ErrEmailInvalido), errors.Is(err, ErrDataInvalida):
		return err.Error()
	}
	var fraca *SenhaFracaError
	if errors.As(err, &fraca) {
		return fraca.Reason
	}
	return "Erro ao atualizar usuário, tente novamente."
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
