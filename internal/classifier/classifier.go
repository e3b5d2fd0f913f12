package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-nursejobs-pipeline/internal/models"
)

// Classifier decides which inactive jobs go live.
type Classifier interface {
	Classify(ctx context.Context, jobs []models.NormalizedJob) ([]models.Decision, error)
}

// maxDescription keeps a batch inside the model context window.
const maxDescription = 1500

func buildSystemPrompt() string {
	return `You review scraped hospital job postings for a registered nurse (RN) job board.
For each posting decide whether it is a genuine RN position a registered nurse would apply to.

Reject when:
1. The role is not an RN role (LPN, CNA, tech, patient care assistant, physician, therapist, non-clinical staff).
2. RN appears only as a supervisor, a preferred alternative, or in "works with the RN" context.
3. The posting is a duplicate placeholder, a talent pool or an event rather than an opening.

Return ONLY a raw JSON array. One object per posting:
{"job_id": "<id>", "approve": true|false, "reason": "<short snake_case reason when rejected>"}
Do NOT wrap the JSON in markdown blocks.`
}

type promptJob struct {
	ID          string `json:"job_id"`
	Title       string `json:"title"`
	Employer    string `json:"employer"`
	Location    string `json:"location"`
	Specialty   string `json:"specialty"`
	Description string `json:"description"`
}

func buildUserPrompt(jobs []models.NormalizedJob) (string, error) {
	items := make([]promptJob, 0, len(jobs))
	for _, j := range jobs {
		desc := j.Description
		if r := []rune(desc); len(r) > maxDescription {
			desc = string(r[:maxDescription])
		}
		items = append(items, promptJob{
			ID:          j.ID,
			Title:       j.Title,
			Employer:    j.EmployerName,
			Location:    strings.TrimSuffix(j.City+", "+j.State, ", "),
			Specialty:   j.Specialty,
			Description: desc,
		})
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal prompt jobs: %w", err)
	}
	return fmt.Sprintf("Postings (JSON):\n%s\n\nReturn one decision per posting.", data), nil
}

// parseDecisions keeps only decisions for jobs in the batch; unknown ids and
// duplicates are dropped.
func parseDecisions(content string, jobs []models.NormalizedJob) ([]models.Decision, error) {
	var raw []models.Decision
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}

	want := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		want[j.ID] = true
	}
	out := make([]models.Decision, 0, len(raw))
	for _, d := range raw {
		if !want[d.JobID] {
			continue
		}
		want[d.JobID] = false
		if !d.Approve && d.Reason == "" {
			d.Reason = "classifier_rejected"
		}
		if d.Approve {
			d.Reason = ""
		}
		out = append(out, d)
	}
	return out, nil
}

// cleanMarkdownJSON removes code fences the model sometimes adds anyway.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
