/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package report

import "github.com/charmbracelet/lipgloss"

// Styles holds the terminal styles used by the text renderer.
type Styles struct {
	Title    lipgloss.Style
	Critical lipgloss.Style
	Warning  lipgloss.Style
	Healthy  lipgloss.Style
	High     lipgloss.Style
	Medium   lipgloss.Style
	Safe     lipgloss.Style
	Label    lipgloss.Style
	Note     lipgloss.Style
	Muted    lipgloss.Style
}

// NewStyles returns coloured styles, or pass-through styles when color is false.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{
			Title:    plain,
			Critical: plain,
			Warning:  plain,
			Healthy:  plain,
			High:     plain,
			Medium:   plain,
			Safe:     plain,
			Label:    plain,
			Note:     plain,
			Muted:    plain,
		}
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		Critical: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		Healthy: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		High: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Medium: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		Safe: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Note: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("170")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
	}
}
