// Package export renders saved answers into a shareable Markdown document.
// Rendering to PDF or other binary formats is left to external tooling.
package export

import (
	"fmt"
	"strings"

	"github.com/viajeia/viajeia-go/pkg/favorites"
)

// Itinerary is the input document: a titled collection of saved answers.
type Itinerary struct {
	Title string
	Owner string
	Items []favorites.Favorite
}

// Markdown renders the itinerary as a Markdown document.
func Markdown(it Itinerary) string {
	var b strings.Builder

	title := it.Title
	if title == "" {
		title = "Mi itinerario de viaje"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if it.Owner != "" {
		fmt.Fprintf(&b, "Preparado para %s\n\n", it.Owner)
	}

	if len(it.Items) == 0 {
		b.WriteString("_Sin consultas guardadas._\n")
		return b.String()
	}

	for i, item := range it.Items {
		heading := item.Destination
		if heading == "" {
			heading = fmt.Sprintf("Consulta %d", i+1)
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)

		if item.Dates != "" {
			fmt.Fprintf(&b, "**Fechas:** %s\n\n", item.Dates)
		}
		if item.Question != "" {
			fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(item.Question, "\n", " "))
		}
		if item.Answer != "" {
			b.WriteString(item.Answer)
			b.WriteString("\n\n")
		}
		if len(item.Photos) > 0 {
			for _, photo := range item.Photos {
				fmt.Fprintf(&b, "![%s](%s)\n", heading, photo)
			}
			b.WriteString("\n")
		}
		if item.SavedAt != "" {
			fmt.Fprintf(&b, "_Guardado el %s_\n\n", item.SavedAt)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
