// Package gaze receives eye tracker samples and turns them into stimulus
// input: a cursor drawn into a raster, or a head orientation for the
// panoramic reprojection.
//
// Subscriber speaks the Pupil Capture network API: it asks Pupil Remote
// (a ZeroMQ REQ/REP endpoint) for the SUB port, subscribes to the "gaze"
// topic and decodes the msgpack payload of every message.
//
//	sub := gaze.NewSubscriber(gaze.WithAddress("127.0.0.1:4587"))
//	go sub.Run(ctx)
//	...
//	if s, ok := sub.Latest(); ok {
//		x, y := s.Pixel(1920, 1080)
//		gaze.Cursor{}.Paint(raster, x, y)
//	}
package gaze
