package ai

import (
	"fmt"
	"strings"

	"github.com/rupeelog/rupeelog/internal/domain"
)

const statementPrompt = "You are a financial statement parser for Indian bank PDF statements " +
	"(HDFC, ICICI, SBI, Axis, Kotak and similar).\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the attached bank statement.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"bank_name\": string (the issuing bank, or \"\" if unknown)\n" +
	"- \"period_start\": string \"YYYY-MM-DD\" or null (statement period start)\n" +
	"- \"period_end\": string \"YYYY-MM-DD\" or null (statement period end)\n" +
	"- \"transactions\": array of objects\n\n" +
	"Each transaction object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string (narration/particulars, cleaned of reference noise)\n" +
	"- \"amount\": number (always positive)\n" +
	"- \"type\": string, \"debit\" for money OUT or \"credit\" for money IN\n" +
	"- \"balance\": number or null (running balance after the transaction)\n" +
	"- \"raw_text\": string (the statement line verbatim, \"\" if unreadable)\n\n" +
	"Rules:\n" +
	"- If the statement has separate withdrawal/deposit columns, set \"type\" from the column used.\n" +
	"- If the running balance is missing, set \"balance\" to null.\n" +
	"- Never invent transactions; skip rows you cannot read.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

// buildCategoriesPrompt lists the user's categories and asks the model to tag
// each numbered transaction with one of them.
func buildCategoriesPrompt(descriptions []string, categories []domain.Category) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant categorizing bank transactions for a user in India.\n\n")
	b.WriteString("Use ONLY the following categories:\n\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Type)
	}

	b.WriteString("\nTransactions:\n\n")
	for i, d := range descriptions {
		fmt.Fprintf(&b, "%d. %s\n", i, d)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("1. Category must be EXACTLY one of the category names shown above.\n")
	b.WriteString("2. Use merchant knowledge: Swiggy/Zomato are food delivery, BigBasket/DMart are groceries, IRCTC is travel.\n")
	b.WriteString("3. \"confidence\" is a number between 0 and 1.\n")
	b.WriteString("4. If no category fits, use category \"\" with confidence 0.\n\n")
	b.WriteString("Output STRICT JSON only: a JSON array with one object per transaction,\n")
	b.WriteString("each with fields \"index\" (number), \"category\" (string), \"confidence\" (number).\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")

	return b.String()
}

// buildInsightsPrompt summarizes a month's figures for the model to narrate.
func buildInsightsPrompt(in InsightInput) string {
	var b strings.Builder

	b.WriteString("You are a personal finance coach. Review this user's month and write practical advice.\n\n")
	fmt.Fprintf(&b, "Month under review: %s (compared against %s). Amounts are in %s.\n\n", in.Month, in.PrevMonth, in.CurrencySymbol)
	b.WriteString("Category | Type | Budget | Spent | Spent previous month\n")
	for _, l := range in.Lines {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s\n", l.Category, l.Type, l.Budget.StringFixed(2), l.Spent.StringFixed(2), l.PrevSpent.StringFixed(2))
	}

	b.WriteString("\nRules:\n")
	b.WriteString("1. Be specific: reference actual categories and amounts from the table.\n")
	b.WriteString("2. Keep the summary under 80 words.\n")
	b.WriteString("3. Give 2 to 4 tips, each a single actionable sentence.\n")
	b.WriteString("4. Do not repeat the table back; interpret it.\n\n")
	b.WriteString("Output STRICT JSON only: an object with fields \"summary\" (string) and \"tips\" (array of strings).\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")

	return b.String()
}
