package tutor

import "github.com/prepia/tutor/internal/llm"

// QuestionSchema is the shape of an adaptive question.
var QuestionSchema = &llm.Schema{
	Name:        "adaptive-question",
	Description: "Una pregunta de opción múltiple con cuatro alternativas y su explicación",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "Enunciado de la pregunta",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactamente cuatro alternativas",
			},
			"correct": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "Índice (0-3) de la alternativa correcta",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Por qué la alternativa correcta lo es",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"fácil", "medio", "difícil"},
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "Tema específico de la pregunta",
			},
		},
		"required":             []any{"question", "options", "correct", "explanation", "difficulty", "topic"},
		"additionalProperties": false,
	},
}

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// StudyPlanSchema is the shape of a weekly study plan.
var StudyPlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "Plan de estudio semanal personalizado",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Resumen ejecutivo del plan en 2 o 3 líneas",
			},
			"weeklyGoals": stringArray,
			"dailySchedule": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day":      map[string]any{"type": "string"},
						"subjects": stringArray,
						"topics":   stringArray,
						"estimatedTime": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Minutos de estudio",
						},
						"goals": stringArray,
					},
					"required":             []any{"day", "subjects", "topics", "estimatedTime", "goals"},
					"additionalProperties": false,
				},
			},
			"milestones": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"week":          map[string]any{"type": "integer", "minimum": 1},
						"goal":          map[string]any{"type": "string"},
						"expectedScore": map[string]any{"type": "number"},
					},
					"required":             []any{"week", "goal", "expectedScore"},
					"additionalProperties": false,
				},
			},
			"tips": stringArray,
		},
		"required":             []any{"summary", "weeklyGoals", "dailySchedule", "milestones", "tips"},
		"additionalProperties": false,
	},
}
