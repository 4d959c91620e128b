package geom

// ClipLine cuts a polyline to b. A line that leaves and re-enters the box
// comes back as several pieces.
func ClipLine(line [][2]float64, b BBox) [][][2]float64 {
	var out [][][2]float64
	var cur [][2]float64
	flush := func() {
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}
	for i := 0; i+1 < len(line); i++ {
		p, q, ok := clipSegment(line[i], line[i+1], b)
		if !ok {
			flush()
			continue
		}
		if len(cur) == 0 || cur[len(cur)-1] != p {
			flush()
			cur = append(cur, p)
		}
		cur = append(cur, q)
		if q != line[i+1] {
			flush()
		}
	}
	flush()
	return out
}

// clipSegment is Liang-Barsky.
func clipSegment(a, c [2]float64, b BBox) ([2]float64, [2]float64, bool) {
	dx, dy := c[0]-a[0], c[1]-a[1]
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, a[0] - b.MinX},
		{dx, b.MaxX - a[0]},
		{-dy, a[1] - b.MinY},
		{dy, b.MaxY - a[1]},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, c, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, c, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return a, c, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	p := a
	if t0 > 0 {
		p = [2]float64{a[0] + t0*dx, a[1] + t0*dy}
	}
	q := c
	if t1 < 1 {
		q = [2]float64{a[0] + t1*dx, a[1] + t1*dy}
	}
	return p, q, true
}

// ClipRing clips a closed ring to b (Sutherland-Hodgman). The result may be
// empty when the ring lies outside.
func ClipRing(ring [][2]float64, b BBox) [][2]float64 {
	inside := []func(p [2]float64) bool{
		func(p [2]float64) bool { return p[0] >= b.MinX },
		func(p [2]float64) bool { return p[0] <= b.MaxX },
		func(p [2]float64) bool { return p[1] >= b.MinY },
		func(p [2]float64) bool { return p[1] <= b.MaxY },
	}
	cross := []func(p, q [2]float64) [2]float64{
		func(p, q [2]float64) [2]float64 { return atX(p, q, b.MinX) },
		func(p, q [2]float64) [2]float64 { return atX(p, q, b.MaxX) },
		func(p, q [2]float64) [2]float64 { return atY(p, q, b.MinY) },
		func(p, q [2]float64) [2]float64 { return atY(p, q, b.MaxY) },
	}
	out := ring
	for e := range inside {
		in := out
		out = nil
		for i, q := range in {
			p := in[(i+len(in)-1)%len(in)]
			switch qin, pin := inside[e](q), inside[e](p); {
			case qin && pin:
				out = append(out, q)
			case qin:
				out = append(out, cross[e](p, q), q)
			case pin:
				out = append(out, cross[e](p, q))
			}
		}
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

func atX(p, q [2]float64, x float64) [2]float64 {
	t := (x - p[0]) / (q[0] - p[0])
	return [2]float64{x, p[1] + t*(q[1]-p[1])}
}

func atY(p, q [2]float64, y float64) [2]float64 {
	t := (y - p[1]) / (q[1] - p[1])
	return [2]float64{p[0] + t*(q[0]-p[0]), y}
}

// ClipPolygon clips every ring of poly to b, dropping rings that vanish. A
// polygon whose outer ring vanishes is dropped entirely.
func ClipPolygon(poly [][][2]float64, b BBox) [][][2]float64 {
	var out [][][2]float64
	for k, r := range poly {
		c := ClipRing(r, b)
		if len(c) < 3 {
			if k == 0 {
				return nil
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
