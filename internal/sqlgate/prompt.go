package sqlgate

import (
	"fmt"
	"strings"

	"scouthub/internal/schema"
)

// BuildPrompt renders the generation prompt for a question: the table
// description, the output contract, and the question.
func BuildPrompt(desc *schema.Descriptor, dialect, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You translate questions about robotics competition scouting data into one read-only %s query.\n\n", dialect)
	b.WriteString(desc.Describe())
	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Respond with exactly one SELECT statement wrapped in %s and %s, and nothing else.\n", OpenMarker, CloseMarker)
	fmt.Fprintf(&b, "- Query only the %s table. Do not use WITH clauses, table functions, or more than one statement.\n", desc.Table)
	b.WriteString("- Never modify data or schema.\n")
	fmt.Fprintf(&b, "- If the question cannot be answered with a read-only query of this table, respond with exactly %s%s%s.\n",
		OpenMarker, NonSelect, CloseMarker)
	b.WriteString("- Use lowercase enum values exactly as listed.\n")
	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(question))
	return b.String()
}
