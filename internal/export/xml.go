// Package export renders a user's expenses into portable documents.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/expense-service/internal/models"
	"github.com/beevik/etree"
)

// RenderXML builds an indented XML document listing the expenses and their total
func RenderXML(userID int64, expenses []models.Expense, generatedAt time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	var total models.Amount
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	root := doc.CreateElement("expenses")
	root.CreateAttr("user_id", strconv.FormatInt(userID, 10))
	root.CreateAttr("generated_at", generatedAt.UTC().Format(time.RFC3339))
	root.CreateAttr("count", strconv.Itoa(len(expenses)))
	root.CreateAttr("total", total.String())

	for _, e := range expenses {
		el := root.CreateElement("expense")
		el.CreateAttr("id", strconv.FormatInt(e.ID, 10))
		el.CreateElement("description").SetText(e.Description)
		el.CreateElement("amount").SetText(e.Amount.String())
		el.CreateElement("category").SetText(e.Category)
		el.CreateElement("date").SetText(e.Date.String())
		if len(e.SplitWith) > 0 {
			el.CreateElement("split_with").SetText(string(e.SplitWith))
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render XML: %w", err)
	}
	return out, nil
}
