package Acoustic3D

import "github.com/notargets/gofdtd/FD3D"

/*
update writes the forward level over a tile given the spatial operator
term for each tile point, lap is ordered x major over the tile.
*/
func (ts *TimeStepper[T]) update(tile FD3D.Tile, lap func(n, ind int) T) {
	var (
		dt      = T(ts.Cfg.TimeAxis.Step)
		fwd     = ts.P.Forward()
		fd      = fwd.Data()
		cd, bd  = ts.P.Current().Data(), ts.P.Backward().Data()
		sd, wqD = ts.Scale.Data(), ts.Materials.WOverQ.Data()
		n       int
	)
	for i := tile.Lo[0]; i < tile.Hi[0]; i++ {
		for j := tile.Lo[1]; j < tile.Hi[1]; j++ {
			base := fwd.Index(i, j, 0)
			for k := tile.Lo[2]; k < tile.Hi[2]; k++ {
				ind := base + k
				dtw := dt * wqD[ind]
				fd[ind] = sd[ind]*lap(n, ind) + (2-dtw)*cd[ind] + (dtw-1)*bd[ind]
				n++
			}
		}
	}
}

/*
fusedTile evaluates sum_axis g~(b g(p)) for one tile without global
intermediates. For each axis b*g(p) is computed into scratch covering the
tile widened by the stencil radius along that axis, points outside the
interior are zero, matching the zero halo seen by the tensor path.
*/
func (ts *TimeStepper[T]) fusedTile(ws *workspace[T], tile FD3D.Tile) {
	var (
		cur   = ts.P.Current()
		pd    = cur.Data()
		shape = ts.Cfg.Grid.Shape()
		r     = ts.Op.Radius()
		tv    = [3]int{tile.Extent(FD3D.X), tile.Extent(FD3D.Y), tile.Extent(FD3D.Z)}
		lap   = ws.lap[:tile.NumPoints()]
	)
	for n := range lap {
		lap[n] = 0
	}
	for _, axis := range FD3D.Axes {
		var (
			g, gt = ts.g[axis], ts.gt[axis]
			bd    = ts.Materials.bAxis(axis).Data()
			ext   = tv
			lo    = tile.Lo
			off   [3]int
		)
		ext[axis] += 2 * r
		lo[axis] -= r
		off[axis] = r
		es := [3]int{ext[1] * ext[2], ext[2], 1}
		q := ws.q[:ext[0]*ext[1]*ext[2]]
		for li := 0; li < ext[0]; li++ {
			i := lo[0] + li
			for lj := 0; lj < ext[1]; lj++ {
				j := lo[1] + lj
				row := q[(li*ext[1]+lj)*ext[2] : (li*ext[1]+lj+1)*ext[2]]
				if i < 0 || i >= shape[0] || j < 0 || j >= shape[1] {
					for lk := range row {
						row[lk] = 0
					}
					continue
				}
				base := cur.Index(i, j, 0)
				for lk := range row {
					k := lo[2] + lk
					if k < 0 || k >= shape[2] {
						row[lk] = 0
						continue
					}
					row[lk] = bd[base+k] * FD3D.Eval(pd, base+k, g.so, g.w)
				}
			}
		}
		// g~ offsets in scratch layout
		tbl := ts.Op.Table(axis, FD3D.ShiftMinus, 1)
		for n, o := range tbl.Offsets {
			ws.so[n] = o * es[axis]
		}
		var n int
		for ti := 0; ti < tv[0]; ti++ {
			for tj := 0; tj < tv[1]; tj++ {
				sBase := ((ti+off[0])*ext[1]+(tj+off[1]))*ext[2] + off[2]
				for tk := 0; tk < tv[2]; tk++ {
					lap[n] += FD3D.Eval(q, sBase+tk, ws.so, gt.w)
					n++
				}
			}
		}
	}
	ts.update(tile, func(n, _ int) T { return lap[n] })
}

// fluxTile computes P_axis = B_axis * g_axis(p) over a tile
func (ts *TimeStepper[T]) fluxTile(tile FD3D.Tile) {
	cur := ts.P.Current()
	for _, axis := range FD3D.Axes {
		// Inputs are validated at Initialize
		_ = ts.Op.DerivativeInto(ts.Flux[axis], cur, axis, FD3D.ShiftPlus, 1, tile)
		_ = FD3D.MulTile(ts.Flux[axis], ts.Flux[axis], ts.Materials.bAxis(axis), tile)
	}
}

// divergenceTile applies div(P) with the -1/2 shifted stencils and writes the forward level
func (ts *TimeStepper[T]) divergenceTile(tile FD3D.Tile) {
	var (
		px, py, pz = ts.Flux[0].Data(), ts.Flux[1].Data(), ts.Flux[2].Data()
		gx, gy, gz = ts.gt[0], ts.gt[1], ts.gt[2]
	)
	ts.update(tile, func(_, ind int) T {
		var div T
		div += FD3D.Eval(px, ind, gx.so, gx.w)
		div += FD3D.Eval(py, ind, gy.so, gy.w)
		div += FD3D.Eval(pz, ind, gz.so, gz.w)
		return div
	})
}
