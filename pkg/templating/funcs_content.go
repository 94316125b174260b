package templating

import (
	"fmt"
	"strconv"
)

// number formats n with the configured locale's digit grouping.
func (tm *TemplateManager) number(n int) string {
	return tm.printer.Sprintf("%d", n)
}

// signed formats n like number with a leading plus for positive values.
func (tm *TemplateManager) signed(n int) string {
	if n > 0 {
		return "+" + tm.number(n)
	}
	return tm.number(n)
}

// duration formats a number of seconds as "5m 12s".
func duration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// percent formats n as "47%".
func percent(n int) string {
	return strconv.Itoa(n) + "%"
}
