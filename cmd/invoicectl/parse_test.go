package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceledger/internal/domain"
)

const invoiceText = `ACME SUPPLY CO
INVOICE: 1001
SHIP TO:
HARBOR BUILDERS LLC 450 DOCK RD DEL. 03/04
LN SHP ORD UM ITEM DESCRIPTION LOC UNITS PRICE PER EXTENSION
1 10 10 EA PVC-200 PVC PIPE 2IN SCH40 Y1 10 $4.50 EA 45.00
MONDAY
INVOICE TOTAL 45.00
`

func TestParseCmd_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(invoiceText), 0o600))

	cmd := parseCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	var inv domain.ParsedInvoice
	require.NoError(t, json.Unmarshal(out.Bytes(), &inv))
	assert.Equal(t, "1001", inv.InvoiceNumber)
	assert.Equal(t, "450DOCKRD", inv.Address)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "PVC-200", inv.Items[0].SKU)
}

func TestParseCmd_Trace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(invoiceText), 0o600))

	cmd := parseCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--trace", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "capturing_address")
	assert.Contains(t, out.String(), "parsing_items")
}

func TestParseCmd_MissingFile(t *testing.T) {
	cmd := parseCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.txt")})

	assert.Error(t, cmd.Execute())
}

func TestExtractCmd_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	cmd := extractCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	assert.ErrorIs(t, err, domain.ErrUnreadablePDF)
}
