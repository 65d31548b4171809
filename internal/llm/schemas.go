package llm

// CandidateProfile is the structured output of candidate generation.
type CandidateProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
}

// Evaluation is the structured output of a (candidate, job) match evaluation.
type Evaluation struct {
	MatchScore int    `json:"matchScore"`
	Analysis   string `json:"analysis"`
}

// CandidateProfileSchema describes the candidate generation output. All
// fields are required and must be non-empty.
func CandidateProfileSchema() Schema {
	return Schema{
		Name: "candidate_profile",
		Raw: `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "description": "The name of the candidate"},
    "email": {"type": "string", "minLength": 3, "description": "The email of the candidate"},
    "experience": {"type": "string", "minLength": 1, "description": "The experience of the candidate"},
    "skills": {"type": "string", "minLength": 1, "description": "The skills of the candidate"}
  },
  "required": ["name", "email", "experience", "skills"],
  "additionalProperties": false
}`,
	}
}

// EvaluationSchema describes the match evaluation output. The score bounds
// are enforced here so out-of-range model output never reaches storage.
func EvaluationSchema() Schema {
	return Schema{
		Name: "evaluation",
		Raw: `{
  "type": "object",
  "properties": {
    "matchScore": {"type": "integer", "minimum": 0, "maximum": 100, "description": "How well the candidate matches the job, 0-100"},
    "analysis": {"type": "string", "minLength": 1, "description": "The reasoning behind the score"}
  },
  "required": ["matchScore", "analysis"],
  "additionalProperties": false
}`,
	}
}
