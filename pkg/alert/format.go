package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const divider = "======================================================================"

// sortedKeys returns the 1-based key numbers of a cooldown status map in
// order.
func sortedKeys(status map[int]string) []int {
	keys := make([]int, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func formatWait(wait time.Duration) string {
	minutes := int(wait.Minutes())
	seconds := int(wait.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// rateLimitEmailBody builds the detailed exhaustion alert body.
func rateLimitEmailBody(status map[int]string, retries int, minWait time.Duration) string {
	var b strings.Builder

	b.WriteString(divider + "\n")
	b.WriteString("GROQ API RATE LIMIT ALERT\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "Time: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("Status: ALL API KEYS RATE LIMITED\n")
	fmt.Fprintf(&b, "Retries Attempted: %d\n\n", retries)

	b.WriteString("KEY STATUS:\n")
	for _, k := range sortedKeys(status) {
		fmt.Fprintf(&b, "Key %d: %s\n", k, status[k])
	}

	if minWait > 0 {
		fmt.Fprintf(&b, "\nNext available key in: %s\n", formatWait(minWait))
	}

	b.WriteString("\nRECOMMENDED ACTIONS:\n")
	b.WriteString("1. Wait for the cooldown period to expire\n")
	b.WriteString("2. Consider upgrading to a higher rate limit tier\n")
	b.WriteString("3. Optimize document processing to reduce token usage\n")
	b.WriteString("4. Add more API keys to your configuration\n\n")
	b.WriteString("This is an automated alert from the Contract Compliance Checker.\n")

	return b.String()
}

// rateLimitSlackText builds the concise exhaustion alert message.
func rateLimitSlackText(status map[int]string, retries int, minWait time.Duration) string {
	var b strings.Builder

	b.WriteString("*ALL API KEYS RATE LIMITED*\n\n")
	fmt.Fprintf(&b, "*Time:* %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "*Retries:* %d\n\n", retries)

	if minWait > 0 {
		fmt.Fprintf(&b, "*Next available:* %s\n\n", formatWait(minWait))
	}

	b.WriteString("*Key Status:*\n")
	for _, k := range sortedKeys(status) {
		fmt.Fprintf(&b, "- Key %d: %s\n", k, status[k])
	}

	return b.String()
}

// ComplianceResultMessage builds the notification for a finished analysis.
func ComplianceResultMessage(documentName, agreementType, result string) (subject, body string) {
	subject = fmt.Sprintf("Compliance Analysis Complete: %s", documentName)

	var b strings.Builder
	b.WriteString("Contract Compliance Analysis Report\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "Document: %s\n", documentName)
	fmt.Fprintf(&b, "Agreement Type: %s\n", agreementType)
	fmt.Fprintf(&b, "Timestamp: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("ANALYSIS RESULTS:\n")
	b.WriteString(divider + "\n\n")
	b.WriteString(result)
	b.WriteString("\n\n" + divider + "\n\n")
	b.WriteString("This is an automated notification from the Contract Compliance Checker.\n")

	return subject, b.String()
}

// RateLimitSubject is the subject line for exhaustion alerts.
const RateLimitSubject = "API Rate Limit Alert - All Keys Exhausted"
