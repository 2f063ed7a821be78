package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

const chatInventory = `{"items":[
	{"itemId": 1, "description": "Bleach White", "major": "Chemicals", "qty": 50, "stockValue": 100},
	{"itemId": 2, "description": "Olive Dye", "major": "Dyes", "qty": 20, "stockValue": 500},
	{"itemId": 3, "description": "Navy Dye", "major": "Dyes", "qty": 30, "stockValue": 300},
	{"itemId": 4, "description": "Caustic Soda", "major": "Chemicals", "qty": 2, "stockValue": 80}
]}`

func testRouter(t *testing.T) *retrieval.Router {
	t.Helper()
	c, err := catalog.Parse([]byte(chatInventory))
	require.NoError(t, err)
	return retrieval.NewRouter(nil, catalog.NewStore(c), nil, nil, nil, retrieval.DefaultRouterConfig())
}

func pageItemIDs(resp *retrieval.Response) []int64 {
	var ids []int64
	for _, r := range resp.Page.Items {
		ids = append(ids, r.ItemID)
	}
	return ids
}

func TestParseChatInput(t *testing.T) {
	tests := map[string]chatAction{
		"":             chatSkip,
		"   ":          chatSkip,
		"next":         chatNext,
		" N ":          chatNext,
		"prev":         chatPrev,
		"back":         chatPrev,
		"exit":         chatExit,
		"QUIT":         chatExit,
		"top costing":  chatAsk,
		"next dye lot": chatAsk,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseChatInput(in), "input %q", in)
	}
}

func TestChatSession_Paging(t *testing.T) {
	ctx := context.Background()
	session := &chatSession{router: testRouter(t), pageSize: 1}

	resp, err := session.ask(ctx, "qty greater than 10")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, pageItemIDs(resp))
	assert.Equal(t, 3, resp.Page.TotalPages)

	_, err = session.turn(ctx, -1)
	assert.ErrorIs(t, err, errNoPage)

	resp, err = session.turn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, pageItemIDs(resp))

	resp, err = session.turn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, pageItemIDs(resp))

	_, err = session.turn(ctx, 1)
	assert.ErrorIs(t, err, errNoPage)

	resp, err = session.turn(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, pageItemIDs(resp))

	// A new question resets the cursor.
	resp, err = session.ask(ctx, "dye")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, pageItemIDs(resp))
	assert.Equal(t, 0, session.page)
}

func TestChatSession_NothingToPage(t *testing.T) {
	ctx := context.Background()
	session := &chatSession{router: testRouter(t)}

	_, err := session.turn(ctx, 1)
	assert.ErrorIs(t, err, errNoPage)

	_, err = session.ask(ctx, "how many items")
	require.NoError(t, err)
	_, err = session.turn(ctx, 1)
	assert.ErrorIs(t, err, errNoPage)
}

func TestRenderResponse(t *testing.T) {
	var out, errOut bytes.Buffer
	ui.InitUI(true, false)
	ui.SetOutput(&out, &errOut)
	t.Cleanup(func() { ui.SetOutput(nil, nil) })

	resp, err := testRouter(t).Query(context.Background(), retrieval.Request{Question: "dye"})
	require.NoError(t, err)
	renderResponse(resp)

	text := out.String()
	assert.Contains(t, text, "Found 2 matching items")
	assert.Contains(t, text, "Olive Dye")
	assert.Contains(t, text, "Navy Dye")
	assert.Contains(t, text, "Page 1 of 1 (2 records)")
	assert.NotContains(t, text, "Bleach White")
	assert.True(t, strings.Contains(text, "Stock Value"))
}

func TestRenderResponse_Warning(t *testing.T) {
	var out, errOut bytes.Buffer
	ui.InitUI(true, false)
	ui.SetOutput(&out, &errOut)
	t.Cleanup(func() { ui.SetOutput(nil, nil) })

	resp, err := testRouter(t).Query(context.Background(), retrieval.Request{Question: "9999"})
	require.NoError(t, err)
	renderResponse(resp)

	assert.Contains(t, out.String(), "⚠ "+retrieval.NoMatchMessage)
}
