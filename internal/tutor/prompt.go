package tutor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prepia/tutor/internal/difficulty"
	"github.com/prepia/tutor/internal/domain"
)

// chatAck is the assistant half of the priming pair.
const chatAck = "Entendido. Estoy listo para ayudar al estudiante con entusiasmo y dedicación. 📚✨"

func buildExplainPrompt(req ExplainRequest, level, exam string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Actúa como un tutor experto en %s para estudiantes que preparan el %s, de nivel %s.\n\n", req.Subject, exam, level)
	fmt.Fprintf(&b, "Pregunta: %s\n", req.Question)
	fmt.Fprintf(&b, "Respuesta del estudiante: %s\n", req.UserAnswer)
	fmt.Fprintf(&b, "Respuesta correcta: %s\n\n", req.CorrectAnswer)
	b.WriteString(`Explica, en un máximo de 200 palabras:
1. Por qué la respuesta correcta es así, de forma clara y concisa
2. El error conceptual del estudiante, si lo hay
3. Un consejo específico para mejorar
4. Un ejemplo similar corto

Sé empático, motivador y didáctico. Usa emojis de vez en cuando.`)
	return b.String()
}

// questionInput is everything the adaptive question prompt depends on.
type questionInput struct {
	Subject  string
	Level    string
	Exam     string
	Accuracy float64
	Tier     difficulty.Tier
	Focus    []string
}

func buildQuestionPrompt(in questionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Genera UNA pregunta de %s para el %s.\n\n", in.Subject, in.Exam)
	fmt.Fprintf(&b, "Nivel del estudiante: %s\n", in.Level)
	fmt.Fprintf(&b, "Rendimiento reciente: %.0f%% de aciertos\n", in.Accuracy)
	fmt.Fprintf(&b, "Enfócate en estos temas débiles: %s\n", strings.Join(in.Focus, ", "))
	fmt.Fprintf(&b, "Dificultad requerida: %s\n\n", in.Tier.Label())
	fmt.Fprintf(&b, "Incluye exactamente 4 alternativas, el índice (0-3) de la correcta, una explicación detallada, la dificultad \"%s\" y el tema específico.", in.Tier.Label())
	return b.String()
}

// chatContext is the learner summary that primes a new transcript.
type chatContext struct {
	Name         string
	Level        string
	WeakSubjects []string
	Accuracy     float64
}

func buildChatPrimer(c chatContext) string {
	name := c.Name
	if name == "" {
		name = "Estudiante"
	}
	weak := strings.Join(c.WeakSubjects, ", ")
	if weak == "" {
		weak = "no identificadas"
	}

	var b strings.Builder
	b.WriteString("Eres un tutor virtual experto y motivador en preparación preuniversitaria peruana.\n\n")
	b.WriteString("Información del estudiante:\n")
	fmt.Fprintf(&b, "- Nombre: %s\n", name)
	fmt.Fprintf(&b, "- Nivel: %s\n", c.Level)
	fmt.Fprintf(&b, "- Materias débiles: %s\n", weak)
	fmt.Fprintf(&b, "- Precisión general: %.1f%%\n\n", c.Accuracy)
	b.WriteString(`Tu rol:
- Motivar y guiar al estudiante con entusiasmo
- Responder dudas académicas de forma clara
- Sugerir estrategias de estudio efectivas
- Ser empático, paciente y cercano
- Usar emojis para que la conversación sea amigable
- Adaptar tu lenguaje al nivel del estudiante

IMPORTANTE: Nunca des la respuesta directa de un ejercicio sin explicar el razonamiento.`)
	return b.String()
}

// weakSubjects returns the subjects scoring below threshold, sorted.
func weakSubjects(scores domain.Scores, threshold float64) []string {
	var out []string
	for subject, score := range scores {
		if score < threshold {
			out = append(out, subject)
		}
	}
	sort.Strings(out)
	return out
}

// writeScores lists subject scores in subject order.
func writeScores(b *strings.Builder, scores domain.Scores) {
	subjects := make([]string, 0, len(scores))
	for s := range scores {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	for _, s := range subjects {
		fmt.Fprintf(b, "- %s: %g%%\n", s, scores[s])
	}
}

func buildAnalysisPrompt(a *Analysis) string {
	times := strings.Join(a.PreferredTimes, ", ")
	if times == "" {
		times = "no determinado"
	}

	var b strings.Builder
	b.WriteString("Analiza el patrón de estudio de este estudiante preuniversitario peruano:\n\n")
	b.WriteString("📊 DATOS DEL ESTUDIANTE:\n")
	fmt.Fprintf(&b, "- Sesiones completadas: %d\n", a.SessionsCount)
	fmt.Fprintf(&b, "- Tiempo total de estudio: %d minutos\n", a.TotalMinutes)
	fmt.Fprintf(&b, "- Racha actual: %d días consecutivos\n", a.Streak)
	fmt.Fprintf(&b, "- Horarios preferidos: %s\n\n", times)
	b.WriteString("📈 RENDIMIENTO POR MATERIA:\n")
	writeScores(&b, a.SubjectScores)
	b.WriteString(`
PROPORCIONA (máximo 300 palabras):
1. 🎯 Análisis del patrón de estudio (fortalezas y debilidades)
2. ⭐ 3 fortalezas principales
3. 🔧 3 áreas de mejora específicas
4. 📋 Plan de acción concreto en 3 pasos
5. 🎓 Predicción del puntaje en el examen real (escala vigesimal 0-20)

Sé motivador, específico y realista. Usa emojis.`)
	return b.String()
}

// planInput is everything the study plan prompt depends on.
type planInput struct {
	Level        string
	Exam         string
	CurrentScore float64
	TargetScore  int
	Days         int
	Scores       domain.Scores
}

func buildPlanPrompt(in planInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crea un plan de estudio personalizado para el %s.\n\n", in.Exam)
	b.WriteString("👤 PERFIL DEL ESTUDIANTE:\n")
	fmt.Fprintf(&b, "- Nivel actual: %s\n", in.Level)
	fmt.Fprintf(&b, "- Puntaje actual: %.1f%%\n", in.CurrentScore)
	fmt.Fprintf(&b, "- Puntaje objetivo: %d%%\n", in.TargetScore)
	fmt.Fprintf(&b, "- Días disponibles: %d\n\n", in.Days)
	b.WriteString("📊 RENDIMIENTO POR MATERIA:\n")
	writeScores(&b, in.Scores)
	b.WriteString(`
Genera un plan SEMANAL detallado: un resumen de 2 o 3 líneas, un objetivo por semana,
un horario diario (día, materias, temas, minutos estimados y metas), hitos semanales
con el puntaje esperado y consejos prácticos.`)
	return b.String()
}

func buildFeedbackPrompt(in *Feedback) string {
	var b strings.Builder
	b.WriteString("Genera un mensaje motivacional personalizado para un estudiante preuniversitario peruano:\n\n")
	b.WriteString("📊 RENDIMIENTO DE HOY:\n")
	fmt.Fprintf(&b, "- Preguntas respondidas: %d\n", in.QuestionsAnswered)
	fmt.Fprintf(&b, "- Respuestas correctas: %d\n", in.CorrectAnswers)
	fmt.Fprintf(&b, "- Tiempo estudiado: %d minutos\n", in.TimeSpent)
	fmt.Fprintf(&b, "- Racha: %d días consecutivos\n\n", in.Streak)
	b.WriteString("📈 CONTEXTO:\n")
	fmt.Fprintf(&b, "- Tendencia: %s\n", in.Trend.Label())
	fmt.Fprintf(&b, "- Estado de ánimo: %s\n", in.Mood)
	fmt.Fprintf(&b, "- Objetivo: %s\n\n", in.Goal)
	b.WriteString(`Escribe un mensaje de máximo 120 palabras que:
1. 🎉 Reconozca el esfuerzo de hoy
2. ⭐ Destaque UN logro concreto
3. 💡 Dé UN consejo accionable para mañana
4. 🚀 Termine con una motivación enérgica

Usa un tono cercano y amigable, con emojis.`)
	return b.String()
}
