/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor reads a CSS color: "#rgb", "#rrggbb", "#rrggbbaa" or an SVG
// color keyword. "none" and "transparent" yield a fully transparent color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}
	if s[0] == '#' {
		return parseHex(s[1:])
	}
	low := strings.ToLower(s)
	switch low {
	case "none", "transparent":
		return color.NRGBA{}, nil
	}
	c, ok := colornames.Map[low]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
}

func parseHex(x string) (color.NRGBA, error) {
	if len(x) == 3 {
		x = string([]byte{x[0], x[0], x[1], x[1], x[2], x[2]})
	}
	if len(x) == 6 {
		x += "ff"
	}
	if len(x) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color #%s", x)
	}
	v, err := strconv.ParseUint(x, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color #%s: %w", x, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// paintColor resolves a color string and multiplies its alpha by opacity.
// Unknown colors paint nothing.
func paintColor(s string, opacity float64) (color.NRGBA, bool) {
	c, err := ParseColor(s)
	if err != nil || c.A == 0 {
		return color.NRGBA{}, false
	}
	op := math.Max(0, math.Min(1, opacity))
	c.A = uint8(math.Round(float64(c.A) * op))
	return c, c.A > 0
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
