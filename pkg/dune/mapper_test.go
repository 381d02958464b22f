package dune

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRows(t *testing.T) {
	rows := []Row{
		{
			"buyer_address":        "0xAbC",
			"first_purchase_tx":    "0xtx1",
			"first_purchase_time":  "2024-03-01 10:00:00.000 UTC",
			"first_purchase_block": float64(19000000),
			"amount":               "1250.5",
			"price_usd":            0.0042,
		},
		{
			"buyer_address":        "0xdef",
			"first_purchase_block": "19000001",
		},
		{"first_purchase_tx": "0xorphan"},
		{"buyer_address": "   "},
	}

	buyers, skipped := MapRows(rows)
	require.Len(t, buyers, 2)
	assert.Equal(t, 2, skipped)

	first := buyers[0]
	assert.Equal(t, "0xAbC", first.WalletAddress)
	assert.Equal(t, "0xtx1", first.TxHash)
	assert.Equal(t, "2024-03-01 10:00:00.000 UTC", first.BlockTime)
	require.NotNil(t, first.BlockNumber)
	assert.EqualValues(t, 19000000, *first.BlockNumber)
	require.NotNil(t, first.Amount)
	assert.Equal(t, "1250.5", first.Amount.String())
	require.NotNil(t, first.PriceUSD)
	assert.Equal(t, "0.0042", first.PriceUSD.String())

	second := buyers[1]
	require.NotNil(t, second.BlockNumber)
	assert.EqualValues(t, 19000001, *second.BlockNumber)
	assert.Nil(t, second.Amount)
	assert.Nil(t, second.PriceUSD)
	assert.Empty(t, second.TxHash)
}

func TestGetEthereumTokenBuyers(t *testing.T) {
	var params map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query/5233698/execute":
			var body struct {
				QueryParameters map[string]string `json:"query_parameters"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			params = body.QueryParameters
			writeJSON(w, http.StatusOK, `{"execution_id":"e1"}`)
		case "/execution/e1/results":
			writeJSON(w, http.StatusOK, `{"state":"QUERY_STATE_COMPLETED","is_execution_finished":true,"result":{"rows":[
				{"buyer_address":"0x1111111111111111111111111111111111111111","first_purchase_block":1},
				{"first_purchase_tx":"0xnone"}]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	res, err := c.GetEthereumTokenBuyers(context.Background(), "0x6982508145454Ce325dDbE47a25d4ec3d2311933", "2024-03-01T12:30", "")
	require.NoError(t, err)
	assert.Len(t, res.Buyers, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, map[string]string{
		"token_address": "6982508145454ce325ddbe47a25d4ec3d2311933",
		"start_time":    "2024-03-01 12:30:00",
		"end_time":      DefaultEndTime,
	}, params)
}

func TestGetEthereumTokenBuyersRejectsBadAddress(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	_, err := c.GetEthereumTokenBuyers(context.Background(), "0x1234", "", "")
	assert.Error(t, err)
}
