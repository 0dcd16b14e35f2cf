package cmdutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rahi-padwal/linkRecall/pkg/cliui"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/utils"
)

const maxSummaryWidth = 96

// RenderLink prints a saved link as an indented block.
func RenderLink(w io.Writer, l *link.Link) {
	fmt.Fprintf(w, "  %s\n", cliui.TitleStyle.Render(l.DisplayTitle()))
	fmt.Fprintf(w, "  %s\n", cliui.LinkStyle.Render(l.OriginalURL))

	if l.Summary != nil && *l.Summary != "" {
		fmt.Fprintf(w, "  %s\n", cliui.ValueStyle.Render(utils.Truncate(*l.Summary, maxSummaryWidth)))
	}
	if len(l.Keywords) > 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(strings.Join(l.Keywords, ", ")))
	}

	fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("%s · %s",
		l.ID, l.CreatedAt.Local().Format("2006-01-02 15:04"))))
}
