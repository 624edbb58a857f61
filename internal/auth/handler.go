package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rumo-app/rumo/internal/shared"
	"github.com/rumo-app/rumo/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/cadastro", h.showCadastro)
	r.Post("/cadastro", h.handleCadastro)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)
	r.Get("/esqueci-senha", h.showEsqueciSenha)
	r.Post("/esqueci-senha", h.handleEsqueciSenha)
	r.Get("/redefinir-senha", h.showRedefinirSenha)
	r.Post("/redefinir-senha", h.handleRedefinirSenha)
}

// MountAPIRoutes registers the public session probe.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/verificar-sessao", h.handleVerificarSessao)
}

type loginForm struct {
	Email string `validate:"required,email"`
	Senha string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
	Aviso  bool
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if h.sessionManager.Validate(sess) == shared.SessionValid {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	data := loginPageData{Form: loginForm{}, Aviso: r.URL.Query().Get("aviso") != ""}
	h.renderLogin(w, r, sess, csrfToken, data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	form := loginForm{
		Email: r.PostFormValue("email"),
		Senha: r.PostFormValue("senha"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(formErrors) == 0 {
		cand, err := h.service.Authenticate(r.Context(), form.Email, form.Senha, r.RemoteAddr)
		if err != nil {
			formErrors["general"] = loginMessage(err)
			if shared.KindOf(err) == shared.KindPersistence {
				h.logger.Error("authenticate", slog.Any("error", err))
			}
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			permanent := r.PostFormValue("manter_conectado") != ""
			sess.Authenticate(strconv.FormatInt(cand.ID, 10), cand.Nome, permanent)
			if _, err := h.csrfManager.RotateToken(r.Context(), sess); err != nil {
				h.logger.Warn("rotate csrf token", slog.Any("error", err))
			}
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Login realizado com sucesso!"})
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	data := loginPageData{Form: form, Errors: formErrors}
	h.renderLogin(w, r, sess, csrfToken, data, http.StatusBadRequest)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, sess *shared.Session, csrfToken string, data loginPageData, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Entrar",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func loginMessage(err error) string {
	var locked *LockedError
	switch {
	case errors.As(err, &locked):
		minutes := locked.Minutes
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("Conta bloqueada por excesso de tentativas. Tente novamente em %d minuto(s).", minutes)
	case errors.Is(err, ErrAccountNotFound):
		return "Email não cadastrado!"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "Senha incorreta!"
	}
	return "Erro ao fazer login, tente novamente."
}

type cadastroForm struct {
	Nome           string
	Email          string
	Telefone       string
	DataNascimento string
}

type cadastroPageData struct {
	Form   cadastroForm
	Errors map[string]string
}

func (h *Handler) showCadastro(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if h.sessionManager.Validate(sess) == shared.SessionValid {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	h.renderCadastro(w, r, sess, csrfToken, cadastroPageData{}, http.StatusOK)
}

func (h *Handler) handleCadastro(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	form := cadastroForm{
		Nome:           r.PostFormValue("nome"),
		Email:          r.PostFormValue("email"),
		Telefone:       r.PostFormValue("telefone"),
		DataNascimento: r.PostFormValue("data_nascimento"),
	}
	input := RegisterInput{
		Nome:           form.Nome,
		Email:          form.Email,
		Telefone:       form.Telefone,
		Nascimento:     form.DataNascimento,
		Senha:          r.PostFormValue("senha"),
		ConfirmarSenha: r.PostFormValue("confirmar_senha"),
	}

	cand, err := h.service.Register(r.Context(), input)
	if err != nil {
		formErrors := map[string]string{"general": registerMessage(err)}
		if shared.KindOf(err) == shared.KindPersistence {
			h.logger.Error("register", slog.Any("error", err))
		}
		h.renderCadastro(w, r, sess, csrfToken, cadastroPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
		return
	}

	if sess == nil {
		h.logger.Error("session missing during registration")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess.Authenticate(strconv.FormatInt(cand.ID, 10), cand.Nome, false)
	if _, err := h.csrfManager.RotateToken(r.Context(), sess); err != nil {
		h.logger.Warn("rotate csrf token", slog.Any("error", err))
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Cadastro realizado com sucesso! Bem-vindo(a), " + cand.Nome + "!"})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderCadastro(w http.ResponseWriter, r *http.Request, sess *shared.Session, csrfToken string, data cadastroPageData, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Cadastro",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/cadastro.html", viewData); err != nil {
		h.logger.Error("render cadastro", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func registerMessage(err error) string {
	var (
		weak    *WeakPasswordError
		profile *InvalidProfileError
	)
	switch {
	case errors.As(err, &weak):
		return weak.Reason
	case errors.As(err, &profile):
		return profile.Reason
	case errors.Is(err, ErrEmailTaken):
		return "Este email já está cadastrado."
	}
	return "Erro ao realizar cadastro, tente novamente."
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	h.sessionManager.Destroy(sess)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) showEsqueciSenha(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	h.renderReset(w, r, sess, "pages/esqueci_senha.html", "Esqueci minha senha", csrfToken, nil, http.StatusOK)
}

func (h *Handler) handleEsqueciSenha(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	email := r.PostFormValue("email")
	if err := h.service.RequestPasswordReset(r.Context(), email, r.RemoteAddr); err != nil {
		// The outcome shown to the user is identical either way; failures are
		// only interesting to operators.
		h.logger.Error("request password reset", slog.Any("error", err))
	}
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Se o email estiver cadastrado, você receberá as instruções de redefinição."})
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

type redefinirPageData struct {
	Token  string
	Errors map[string]string
}

func (h *Handler) showRedefinirSenha(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	data := redefinirPageData{Token: r.URL.Query().Get("token")}
	h.renderReset(w, r, sess, "pages/redefinir_senha.html", "Redefinir senha", csrfToken, data, http.StatusOK)
}

func (h *Handler) handleRedefinirSenha(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	token := r.PostFormValue("token")
	senha := r.PostFormValue("senha")
	confirmar := r.PostFormValue("confirmar_senha")

	if senha != confirmar {
		data := redefinirPageData{Token: token, Errors: map[string]string{"general": "As senhas não coincidem."}}
		h.renderReset(w, r, sess, "pages/redefinir_senha.html", "Redefinir senha", csrfToken, data, http.StatusBadRequest)
		return
	}

	if err := h.service.RedeemPasswordReset(r.Context(), token, senha, r.RemoteAddr); err != nil {
		if shared.KindOf(err) == shared.KindPersistence {
			h.logger.Error("redeem password reset", slog.Any("error", err))
		}
		data := redefinirPageData{Token: token, Errors: map[string]string{"general": resetMessage(err)}}
		h.renderReset(w, r, sess, "pages/redefinir_senha.html", "Redefinir senha", csrfToken, data, http.StatusBadRequest)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Senha redefinida com sucesso! Faça login com a nova senha."})
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func resetMessage(err error) string {
	var weak *WeakPasswordError
	switch {
	case errors.As(err, &weak):
		return weak.Reason
	case errors.Is(err, ErrResetInvalid):
		return "Link de redefinição inválido ou expirado."
	}
	return "Erro ao redefinir a senha, tente novamente."
}

func (h *Handler) renderReset(w http.ResponseWriter, r *http.Request, sess *shared.Session, page, title, csrfToken string, data any, status int) {
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render reset page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleVerificarSessao(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if h.sessionManager.Validate(sess) == shared.SessionValid {
		_, _ = w.Write([]byte(`{"logged_in":true,"usuario":` + strconv.Quote(sess.UserName()) + `}`))
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"logged_in":false}`))
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleCadastroForTest exposes the POST handler for tests.
func (h *Handler) HandleCadastroForTest(w http.ResponseWriter, r *http.Request) {
	h.handleCadastro(w, r)
}
