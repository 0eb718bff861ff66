// Package political implements the political compass commands.
package political

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/chart"
	"github.com/butecodosdevs/buteco-linebot-go/internal/compass"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/render"
)

// Module constants
const (
	ModuleName = "political"
	senderName = "Bússola Política"
)

const (
	chartPageSize = 10
	compassTest   = "politicalcompass.org/test/pt-pt"
)

var quadrantColor = map[compass.Quadrant]string{
	compass.AuthoritarianRight: "#3498DB",
	compass.AuthoritarianLeft:  "#E74C3C",
	compass.LibertarianRight:   "#F1C40F",
	compass.LibertarianLeft:    "#2ECC71",
}

var quadrantSummary = map[compass.Quadrant]string{
	compass.AuthoritarianRight: "Favorece autoridade e políticas de direita",
	compass.AuthoritarianLeft:  "Favorece autoridade e políticas de esquerda",
	compass.LibertarianRight:   "Favorece liberdade individual e políticas de direita",
	compass.LibertarianLeft:    "Favorece liberdade individual e políticas de esquerda",
}

// ImageStore publishes chart images.
type ImageStore interface {
	PutPNG(ctx context.Context, data []byte) (string, error)
}

// Handler handles political compass commands.
type Handler struct {
	members   *member.Directory
	political *backend.PoliticalClient
	images    ImageStore
	sessions  bot.Sessions
	logger    *logger.Logger
}

// NewHandler creates a political handler. images may be nil, in which
// case the chart command only lists positions.
func NewHandler(members *member.Directory, political *backend.PoliticalClient, images ImageStore, sessions bot.Sessions, log *logger.Logger) *Handler {
	return &Handler{
		members:   members,
		political: political,
		images:    images,
		sessions:  sessions,
		logger:    log.WithModule(ModuleName),
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return ModuleName
}

// Register adds the political commands.
func (h *Handler) Register(r *bot.Router) {
	r.Register("definir_posicao_politica", bot.ArgSpec{
		{Name: "x", Kind: bot.ArgNumber},
		{Name: "y", Kind: bot.ArgNumber},
		{Name: "usuario", Kind: bot.ArgUser, Optional: true},
	}, h.handleSet)
	r.Register("ver_posicao_politica", bot.ArgSpec{
		{Name: "usuario", Kind: bot.ArgUser, Optional: true},
	}, h.handleView)
	r.Register("grafico_politico", nil, h.handleChart)
}

// target returns the mentioned user, or the actor when nobody was.
func target(inv *bot.Invocation) string {
	if id, _ := inv.Args.User("usuario"); id != "" {
		return id
	}
	return inv.ActorID
}

func (h *Handler) handleSet(ctx context.Context, inv *bot.Invocation) error {
	x, y := inv.Args.Number("x"), inv.Args.Number("y")
	if err := compass.Validate(x, y); err != nil {
		return err
	}

	userID := target(inv)
	user, err := h.members.Ensure(ctx, userID)
	if err != nil {
		return err
	}
	if err := h.political.SetPosition(ctx, userID, x, y); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Political position set", "x", x, "y", y)

	pos := compass.Locate(x, y)
	msg := render.Success("✅ Posição Política Definida!",
		fmt.Sprintf("Posição política de %s foi definida com sucesso!", user.Name)).
		WithField("📍 X (Esquerda ← → Direita)", render.Decimal(x), true).
		WithField("📍 Y (Libertário ↓ ↑ Autoritário)", render.Decimal(y), true).
		WithField("🎯 Quadrante", pos.Quadrant.Label(), false).
		WithFooter("Use /grafico_politico para ver todas as posições!")
	msg.Color = quadrantColor[pos.Quadrant]
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) handleView(ctx context.Context, inv *bot.Invocation) error {
	userID := target(inv)
	p, err := h.political.Position(ctx, userID)
	if err != nil {
		if be, ok := domerrors.AsBackendError(err); ok && be.Status == http.StatusNotFound {
			return inv.Reply(ctx, bot.Reply(h.notFound(ctx, userID)).As(senderName))
		}
		return err
	}

	name := p.Name
	if name == "" {
		name = h.members.Name(ctx, userID)
	}
	pos := compass.Locate(p.X, p.Y)
	msg := render.Info("📊 Posição Política de "+name, quadrantSummary[pos.Quadrant]).
		WithField("📍 Coordenada X", render.Decimal(p.X), true).
		WithField("📍 Coordenada Y", render.Decimal(p.Y), true).
		WithField("🎯 Quadrante", pos.Quadrant.Label(), false).
		WithField("💪 Intensidade", pos.Intensity.String(), true).
		WithField("📏 Distância do Centro", fmt.Sprintf("%.2f", pos.Distance), true).
		WithFooter("Use /grafico_politico para ver o gráfico completo")
	msg.Color = quadrantColor[pos.Quadrant]
	return inv.Reply(ctx, bot.Reply(msg).As(senderName))
}

func (h *Handler) notFound(ctx context.Context, userID string) render.Message {
	return render.Warning("❌ Posição Não Encontrada",
		fmt.Sprintf("%s ainda não definiu sua posição política.\n\nUse /definir_posicao_politica <x> <y> para definir!", h.members.Name(ctx, userID))).
		WithField("🧭 Como Descobrir Sua Posição?", "Faça o teste em: "+compassTest, false)
}

type entry struct {
	name string
	pos  compass.Position
}

func (h *Handler) handleChart(ctx context.Context, inv *bot.Invocation) error {
	data, err := h.political.Chart(ctx)
	if err != nil {
		return err
	}
	if len(data.Positions) == 0 {
		msg := render.Info("📊 Gráfico Político",
			"Nenhuma posição política foi definida ainda.\nUse /definir_posicao_politica para adicionar sua posição!")
		return inv.Reply(ctx, bot.Reply(msg).As(senderName))
	}

	entries := make([]entry, len(data.Positions))
	points := make([]compass.Point, len(data.Positions))
	for i, p := range data.Positions {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = h.members.Name(ctx, p.User)
		}
		entries[i] = entry{name: name, pos: compass.Locate(p.X, p.Y)}
		points[i] = compass.Point{X: p.X, Y: p.Y, Label: name}
	}

	resp := h.sessions.Paginate(inv.ActorID, pagination.Build(entries, chartPageSize, func(items []entry, _ pagination.PageInfo) render.Message {
		msg := render.Info("🧭 Posições Políticas", fmt.Sprintf("Posições políticas de %d usuário(s)", data.Count))
		for _, e := range items {
			msg = msg.WithField(e.name,
				fmt.Sprintf("(%s; %s) %s", render.Decimal(e.pos.X), render.Decimal(e.pos.Y), e.pos.Quadrant.Label()), false)
		}
		return msg
	}))

	if url := h.publish(ctx, points); url != "" {
		img := render.Info("📊 Gráfico Político - Bússola Política", fmt.Sprintf("Posições políticas de %d usuário(s)", data.Count)).
			WithImage(url).
			WithFooter("Use /definir_posicao_politica para adicionar ou atualizar sua posição. Teste: " + compassTest)
		resp.Messages = []render.Message{img}
	}
	return inv.Reply(ctx, resp.As(senderName))
}

// publish renders and stores the chart, returning "" when there is no
// storage or either step fails.
func (h *Handler) publish(ctx context.Context, points []compass.Point) string {
	if h.images == nil {
		return ""
	}
	png, err := chart.Render(points)
	if err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to render political chart")
		return ""
	}
	url, err := h.images.PutPNG(ctx, png)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to upload political chart")
		return ""
	}
	return url
}
