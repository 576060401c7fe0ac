package display

import (
	"errors"
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/dixieflatline76/Canvaz/util/log"
)

// ErrNoDisplay is returned when no X server connection can be made.
var ErrNoDisplay = errors.New("cannot connect to X display")

// Query asks the X server for the current monitor layout. An empty name uses
// $DISPLAY. Xinerama screens are used when the extension is present;
// otherwise the whole root window is reported as a single monitor.
func Query(displayName string) (Layout, error) {
	conn, err := xgb.NewConnDisplay(displayName)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrNoDisplay, err)
	}
	defer conn.Close()

	return QueryConn(conn)
}

// QueryConn is Query over an existing connection.
func QueryConn(conn *xgb.Conn) (Layout, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	rootRect := image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels))

	rects, err := xineramaScreens(conn)
	if err != nil || len(rects) == 0 {
		if err != nil {
			log.Debugf("Display: xinerama unavailable, using root window: %v", err)
		}
		return NewLayout(rootRect), nil
	}
	return NewLayout(rects...), nil
}

func xineramaScreens(conn *xgb.Conn) ([]image.Rectangle, error) {
	if err := xinerama.Init(conn); err != nil {
		return nil, err
	}
	active, err := xinerama.IsActive(conn).Reply()
	if err != nil {
		return nil, err
	}
	if active.State == 0 {
		return nil, nil
	}
	reply, err := xinerama.QueryScreens(conn).Reply()
	if err != nil {
		return nil, err
	}

	rects := make([]image.Rectangle, 0, reply.Number)
	for _, s := range reply.ScreenInfo {
		x, y := int(s.XOrg), int(s.YOrg)
		rects = append(rects, image.Rect(x, y, x+int(s.Width), y+int(s.Height)))
	}
	return rects, nil
}
