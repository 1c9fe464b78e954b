package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/customeros/mailharvest/interfaces"
	"github.com/customeros/mailharvest/internal/models"
	"github.com/customeros/mailharvest/internal/utils"
)

const (
	previewLength = 200
	ruleWidth     = 80
	subRuleWidth  = 40
)

type consoleService struct {
	out io.Writer
}

func NewConsoleService(out io.Writer) interfaces.DisplayService {
	if out == nil {
		out = os.Stdout
	}
	return &consoleService{out: out}
}

// Display prints every message of the batch with a body preview.
func (s *consoleService) Display(batch models.MessageBatch) {
	if len(batch) == 0 {
		fmt.Fprintln(s.out, "No messages to display.")
		return
	}

	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(s.out, "\n%s\n", rule)
	fmt.Fprintf(s.out, "Fetched messages: %d\n", len(batch))
	fmt.Fprintf(s.out, "%s\n\n", rule)

	for i, msg := range batch {
		fmt.Fprintf(s.out, "[Message %d]\n", i+1)
		fmt.Fprintf(s.out, "Subject: %s\n", msg.Subject)
		fmt.Fprintf(s.out, "Sender: %s\n", msg.Sender)
		fmt.Fprintf(s.out, "Date: %s\n", msg.DateRaw)
		fmt.Fprintln(s.out, "Body:")
		fmt.Fprintln(s.out, strings.Repeat("-", subRuleWidth))
		fmt.Fprintln(s.out, utils.PreviewText(msg.Body, previewLength))
		fmt.Fprintf(s.out, "\n%s\n\n", rule)
	}
}

var _ interfaces.DisplayService = (*consoleService)(nil)
