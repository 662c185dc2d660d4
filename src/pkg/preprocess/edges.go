package preprocess

const (
	tan22_5 = 0.41421356237309504880
	tan67_5 = 2.41421356237309504880
)

/*
Canny returns a binary edge map (255 = edge) of a grayscale raster.

Gradients come from 3x3 Sobel operators with a replicated border and the
magnitude is |dx| + |dy|. Non-maximum suppression quantizes the gradient
direction into four sectors; hysteresis keeps weak pixels (> low) only when
they are 8-connected to a strong pixel (> high).
*/
func Canny(g *Raster, low, high int) (*Raster, error) {
	err := requireGray("canny", g)
	if err != nil {
		return nil, err
	}
	w, h := g.Width, g.Height
	dx, dy, mag := sobel(g.Pix, w, h)

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		notEdge = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := abs(dx[i]), abs(dy[i])
			keep := false
			switch {
			case float64(ay) < float64(ax)*tan22_5:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case float64(ay) > float64(ax)*tan67_5:
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := max(0, y-1); ny <= min(h-1, y+1); ny++ {
			for nx := max(0, x-1); nx <= min(w-1, x+1); nx++ {
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	out := newRaster(w, h, 1)
	for i, s := range state {
		if s == strong {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

func sobel(src []uint8, w, h int) (dx, dy, mag []int) {
	dx = make([]int, w*h)
	dy = make([]int, w*h)
	mag = make([]int, w*h)
	px := func(x, y int) int {
		return int(src[clampIndex(y, h)*w+clampIndex(x, w)])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x-1, y) + px(x-1, y+1))
			gy := (px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)) -
				(px(x-1, y-1) + 2*px(x, y-1) + px(x+1, y-1))
			i := y*w + x
			dx[i] = gx
			dy[i] = gy
			mag[i] = abs(gx) + abs(gy)
		}
	}
	return dx, dy, mag
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
