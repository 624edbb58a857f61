package quiz

import "time"

// Option is one lettered answer with its per-track weights. Zero weights are
// omitted from the JSON payload, matching what the questionnaire front-end
// expects.
type Option struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Informatica int    `json:"informatica,omitempty"`
	Web         int    `json:"web,omitempty"`
	Manutencao  int    `json:"manutencao,omitempty"`
	Dados       int    `json:"dados,omitempty"`
}

// Question is one active questionnaire entry with its options.
type Question struct {
	Numero    int      `json:"n_pergunta"`
	Descricao string   `json:"descricao"`
	Opcoes    []Option `json:"opcoes"`
}

// Scores aggregates the per-track points of one questionnaire run.
type Scores struct {
	Informatica int `json:"informatica"`
	Web         int `json:"web"`
	Manutencao  int `json:"manutencao"`
	Dados       int `json:"dados"`
}

// Result is a stored questionnaire outcome.
type Result struct {
	ID               int64     `json:"id_resultado"`
	CandidatoID      int64     `json:"-"`
	RealizadoEm      time.Time `json:"data_realizacao"`
	Scores           Scores    `json:"pontuacao"`
	CursoRecomendado string    `json:"curso_recomendado"`
}

// Course display names per track, in tie-break priority order.
var courseByTrack = []struct {
	score  func(Scores) int
	course string
}{
	{func(s Scores) int { return s.Informatica }, "Informática"},
	{func(s Scores) int { return s.Web }, "Desenvolvimento Web"},
	{func(s Scores) int { return s.Manutencao }, "Manutenção e Suporte"},
	{func(s Scores) int { return s.Dados }, "Ciência de Dados"},
}

// RecommendCourse picks the course for the highest track score. Ties resolve
// in a fixed order so the outcome is deterministic.
func RecommendCourse(s Scores) string {
	best := courseByTrack[0]
	bestScore := best.score(s)
	for _, entry := range courseByTrack[1:] {
		if entry.score(s) > bestScore {
			best = entry
			bestScore = entry.score(s)
		}
	}
	return best.course
}
