// Package ofx imports OFX/QFX bank exports as manual rows.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/aclindsa/ofxgo"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	// Match opening tags that are missing their closing bracket
	// Pattern: <TAGNAME at end of line (no > and no content after tag)
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX export into manual rows scoped to tenantID.
// Amounts keep the OFX sign convention, which matches ours.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader, tenantID string) ([]normalize.ManualRow, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var rows []normalize.ManualRow
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			rows = append(rows, p.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), tenantID)...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			rows = append(rows, p.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), tenantID)...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Parsed OFX file",
		"total_rows", len(rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return rows, nil
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList, accountID, tenantID string) []normalize.ManualRow {
	if list == nil {
		return nil
	}

	rows := make([]normalize.ManualRow, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		rows = append(rows, p.convertTransaction(ofxTx, accountID, tenantID))
	}
	return rows
}

// convertTransaction maps an OFX transaction onto a manual row. NAME or PAYEE
// is the counterparty and MEMO the remittance line.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, tenantID string) normalize.ManualRow {
	row := normalize.ManualRow{
		ID:           string(ofxTx.FiTID),
		TenantID:     tenantID,
		AccountID:    accountID,
		BookingDate:  ofxTx.DtPosted.Time,
		Amount:       ofxTx.TrnAmt.FloatString(2),
		Counterparty: normalize.Ptr(p.extractMerchantName(ofxTx)),
		Purpose:      normalize.Ptr(string(ofxTx.Memo)),
	}

	if row.ID == "" {
		amount, _ := ofxTx.TrnAmt.Float64()
		row.ID = model.Transaction{
			TenantID:     tenantID,
			AccountID:    accountID,
			Date:         row.BookingDate,
			Amount:       amount,
			Counterparty: *row.Counterparty,
		}.GenerateHash()
	}

	return row
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner merchant name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	// Fall back to NAME field
	name := string(tx.Name)

	// Use MEMO field if NAME is generic
	if tx.Memo != "" && isGenericDescription(name) {
		// Sometimes MEMO has better merchant info
		name = string(tx.Memo)
	}

	// Basic cleanup
	name = strings.TrimSpace(name)

	// Remove booking-type prefixes
	prefixes := []string{
		"POS PURCHASE ",
		"DEBIT CARD PURCHASE ",
		"KARTENZAHLUNG ",
		"LASTSCHRIFT ",
		"SEPA-LASTSCHRIFT ",
		"SEPA-UEBERWEISUNG ",
		"DAUERAUFTRAG ",
		"GIROCARD ",
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Clean up date patterns like "MM/DD" at the beginning
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PAYMENT",
		"LASTSCHRIFT",
		"GUTSCHRIFT",
		"UEBERWEISUNG",
		"DAUERAUFTRAG",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			if stmt.BankAcctFrom.AcctID != "" {
				accountMap[string(stmt.BankAcctFrom.AcctID)] = true
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			if stmt.CCAcctFrom.AcctID != "" {
				accountMap[string(stmt.CCAcctFrom.AcctID)] = true
			}
		}
	}

	var accounts []string
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	slices.Sort(accounts)
	return accounts, nil
}
