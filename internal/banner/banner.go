package banner

import (
	"faultline/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
   ____            ____  __  ___
  / __/___ ___  __/ / /_/ / /__/ ___  ___
 / /_/ __ '/ / / / / __/ / / _ \/ _ \/ -_)
/_/  \__,_/\_,_/_/_/\__/_/_/_//_/_//_/\__/ `

	return "\n" + style.Render(ascii) + "\n"
}
