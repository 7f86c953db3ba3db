package artwork

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	xdraw "golang.org/x/image/draw"
)

// TerminalHeight is the number of rows an image occupies at the given column
// width. A terminal cell is roughly twice as tall as it is wide.
func TerminalHeight(imgW, imgH, widthCols int) int {
	if imgW <= 0 {
		return 0
	}
	aspect := float64(imgH) / float64(imgW)
	return int(math.Ceil(float64(widthCols) * aspect / 2))
}

// Render draws the image at path as widthCols columns of half-block cells.
// Each cell packs two vertically stacked pixels into a ▀ with distinct
// foreground and background colors.
func Render(path string, widthCols int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	rows := TerminalHeight(b.Dx(), b.Dy(), widthCols)
	if rows < 1 {
		rows = 1
	}

	// Two pixels per cell vertically.
	dst := image.NewRGBA(image.Rect(0, 0, widthCols, rows*2))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows*2; y += 2 {
		for x := 0; x < widthCols; x++ {
			top := dst.RGBAAt(x, y)
			bot := dst.RGBAAt(x, y+1)
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top.R, top.G, top.B))).
				Background(lipgloss.Color(hexColor(bot.R, bot.G, bot.B)))
			sb.WriteString(cell.Render("▀"))
		}
		if y+2 < rows*2 {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func hexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Compose lays the rendered image block with its caption beside the text
// lines, honoring the configured offsets and gap.
func Compose(img, caption string, textLines []string, offsetX, offsetY, gap int) string {
	left := img
	if caption != "" {
		left = lipgloss.JoinVertical(lipgloss.Left, img, caption)
	}
	if offsetX > 0 {
		left = indent(left, offsetX)
	}

	joined := lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		strings.Repeat(" ", gap),
		strings.Join(textLines, "\n"),
	)

	if offsetY > 0 {
		joined = strings.Repeat("\n", offsetY) + joined
	}
	return joined
}

// indent prefixes every line of s with n spaces.
func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}
