package recommender

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// DefaultSystemInstruction frames every model call
const DefaultSystemInstruction = "You are an expert ESL (English as a Second Language) teacher assistant specializing in creating engaging, age-appropriate classroom activities and games."

const recommendationCount = 15

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

// RecommendationPrompt builds the recommendation task for req
func RecommendationPrompt(req models.RecommendationsRequest) string {
	lang := models.LanguageName(req.Language)

	var filters models.SelectionFilters
	if req.Filters != nil {
		filters = req.Filters.Normalize()
	}
	filtersJSON, _ := json.Marshal(filters)

	var b strings.Builder
	b.WriteString("RECOMMENDATION TASK:\n")
	fmt.Fprintf(&b, "Provide EXACTLY %d unique English teaching game activities.\n", recommendationCount)
	fmt.Fprintf(&b, "- Filters: %s\n", filtersJSON)
	fmt.Fprintf(&b, "- Grammar Topic: %s\n", orNone(req.GrammarTopic))
	if req.GrammarTopic != "" {
		b.WriteString("\nHARD CONSTRAINT:\n")
		fmt.Fprintf(&b, "If grammarTopic is provided, you MUST return ONLY activities that primarily practice exactly this grammarTopic: %q. Do NOT mix other grammar topics.\n", req.GrammarTopic)
		fmt.Fprintf(&b, "Every item MUST include grammar_focus equal to %q (exact string match).\n", req.GrammarTopic)
		b.WriteString("If you cannot comply, return fewer items rather than returning mismatched items.\n\n")
	}
	b.WriteString("- IMPORTANT: 'tags' MUST have 4 to 7 items.\n")
	b.WriteString("- IMPORTANT: 'summary_en' MUST ALWAYS be in English.\n")
	fmt.Fprintf(&b, "- IMPORTANT: 'summary_localized' MUST ALWAYS be in %s.\n", lang)
	fmt.Fprintf(&b, "- All other descriptive fields should be in: %s\n", lang)
	fmt.Fprintf(&b, "- Exclude: %s\n", strings.Join(req.ExcludedGames, ", "))
	fmt.Fprintf(&b, "- Search Query: %s\n", orNone(req.SearchQuery))
	b.WriteString("\nRULES:\n")
	fmt.Fprintf(&b, "- You MUST provide exactly %d recommendations (unless complying with grammarTopic reduces the count).\n", recommendationCount)
	b.WriteString("- Each game MUST have between 4 and 7 tags.\n")
	return b.String()
}

// DetailPrompt builds the lesson plan task for req
func DetailPrompt(req models.GameDetailRequest) string {
	lang := models.LanguageName(req.Language)

	var levels string
	if req.Filters != nil {
		levels = strings.Join(req.Filters.Level, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detailed instructions for: %q.\n", req.GameTitle)
	fmt.Fprintf(&b, "Target Level: %s\n\n", levels)

	b.WriteString("STRICT CONTENT RULES:\n")
	fmt.Fprintf(&b, "- Localize everything EXCEPT game_title, tags, and teacher_directions to %s.\n", lang)
	b.WriteString("- Include a colorful emoji ('icon') that represents the game's theme perfectly.\n")
	b.WriteString("- 'tags' MUST have 4 to 7 items.\n")
	fmt.Fprintf(&b, "- 'illustration' MUST be 2-3 plain descriptive sentences (written in %s) that paint a specific, concrete picture of the classroom during this activity: "+
		"where students are positioned, what materials they are holding, what a typical student-to-student exchange physically looks like, and what the teacher is doing. "+
		"Focus on observable, physical details, NOT vague emotional atmosphere. "+
		"Do NOT write filler sentences like \"laughter fills the room\", \"everyone is happily participating\", or any sentence that could apply to any activity. "+
		"Do NOT include any URLs, image links, markdown syntax, or special characters. Plain prose only.\n\n", lang)

	b.WriteString("TEACHER DIRECTIONS - CRITICAL RULES (violations are unacceptable):\n")
	b.WriteString("1. LANGUAGE: teacher_directions MUST ALWAYS be written in English regardless of any other language setting.\n")
	b.WriteString("2. CONTENT - WHAT, NOT HOW: Each direction MUST be the EXACT WORDS the teacher says out loud to students during the activity.\n")
	b.WriteString("   - WRONG (meta-instruction to teacher): \"Tell students to find a partner and practice vocabulary.\"\n")
	b.WriteString("   - CORRECT (actual teacher speech): \"Find a partner and take turns using the words from today's lesson.\"\n")
	b.WriteString("   - Write as if the teacher is speaking directly to the class right now.\n")
	b.WriteString("3. COMPLEXITY BY LEVEL:\n")
	b.WriteString("   - simple: Very short sentences (8 words or fewer each). Basic everyday vocabulary only. One action per sentence. No subordinate clauses.\n")
	b.WriteString("     Example: \"Stand up. Find a partner. Ask your question.\"\n")
	b.WriteString("   - medium: Complete sentences (15 words or fewer). Moderate vocabulary. Can link two related actions with 'and' or 'then'.\n")
	b.WriteString("     Example: \"Walk around the room and ask three different classmates the question on your card.\"\n")
	b.WriteString("   - complex: Elaborate sentences with conditional structures, academic vocabulary, and dependent clauses (25 words or fewer). Can include nuanced task instructions.\n")
	b.WriteString("     Example: \"Once you've gathered responses from at least four classmates, analyze which answers were most common and prepare to share your findings.\"\n\n")

	b.WriteString("STUDENT INTERACTIONS - CRITICAL RULES:\n")
	b.WriteString("1. MINIMUM: student_interactions MUST contain at least 3 items. An empty array is NOT acceptable.\n")
	b.WriteString("2. CONTENT: Each item MUST be an actual sentence a student would say during the game, not a description of what students do.\n")
	b.WriteString("   - WRONG: \"Students ask each other about their favorites.\"\n")
	b.WriteString("   - CORRECT: \"What's your favorite season, and why do you like it?\"\n")
	b.WriteString("3. LOGICAL CONSISTENCY: Every interaction must make sense within the specific game being described.\n")
	fmt.Fprintf(&b, "4. LEVEL APPROPRIATENESS: Language must match the target level (%s).\n", levels)
	return b.String()
}

// ImagePrompt builds the retro pixel-art thumbnail prompt for a game
func ImagePrompt(subject, season string) string {
	p := fmt.Sprintf("8-bit retro game style illustration of %s, classroom setting, educational, kid-friendly, vibrant colors, pixel art, no text", subject)
	if season != "" {
		p += ", " + season
	}
	return p
}
