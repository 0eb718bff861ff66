package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
)

func TestParsePostback_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data string
		want PostbackData
	}{
		{
			name: "page next",
			data: PagePostback("s1", pagination.NavNext),
			want: PostbackData{Kind: PostbackPage, SessionID: "s1", Nav: pagination.NavNext},
		},
		{
			name: "page delete",
			data: PageDeletePostback("s1"),
			want: PostbackData{Kind: PostbackPage, SessionID: "s1", Delete: true},
		},
		{
			name: "dialog confirm",
			data: DialogPostback("s2", dialog.ActionConfirm),
			want: PostbackData{Kind: PostbackDialog, SessionID: "s2", Action: dialog.Action{Kind: dialog.ActionConfirm}},
		},
		{
			name: "dialog select",
			data: SelectPostback("s2", 7),
			want: PostbackData{Kind: PostbackDialog, SessionID: "s2", Action: dialog.Action{Kind: dialog.ActionSelect, Index: 7}},
		},
		{
			name: "module",
			data: ModulePostback("bet", "option", "12", "1"),
			want: PostbackData{Kind: PostbackModule, Module: "bet", ModAction: "option", Params: []string{"12", "1"}},
		},
		{
			name: "module without params",
			data: ModulePostback("system", "help"),
			want: PostbackData{Kind: PostbackModule, Module: "system", ModAction: "help", Params: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePostback_Invalid(t *testing.T) {
	for _, data := range []string{
		"no-separator",
		":action",
		"bet:",
		"pg$s1",
		"pg$$next",
		"pg$s1$sideways",
		"dlg$s1$maybe",
		"dlg$s1$select",
		"dlg$s1$select$x",
		"dlg$s1$confirm$extra",
	} {
		t.Run(data, func(t *testing.T) {
			_, err := ParsePostback(data)
			assert.ErrorIs(t, err, errBadPostback)
		})
	}
}

func TestJoinPostback(t *testing.T) {
	assert.Equal(t, "a", JoinPostback("a"))
	assert.Equal(t, "a$b$c", JoinPostback("a", "b", "c"))
}

func TestSplitCommand(t *testing.T) {
	name, prefixed := splitCommand("/coins")
	assert.Equal(t, "coins", name)
	assert.True(t, prefixed)

	name, prefixed = splitCommand("!coins")
	assert.Equal(t, "coins", name)
	assert.True(t, prefixed)

	name, prefixed = splitCommand("coins")
	assert.Equal(t, "coins", name)
	assert.False(t, prefixed)
}
