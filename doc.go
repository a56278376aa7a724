// Package streamreader reads decoded video frames from a camera device, a
// network stream or a local file.
//
//	r := streamreader.New(ctx, "rtsp://10.0.0.2:554/stream1")
//	defer r.Close(ctx)
//	for r.IsOpened() {
//		ok, f := r.Read(ctx)
//		if !ok {
//			break
//		}
//		if f == nil {
//			continue // a non-video unit, or the end of the stream
//		}
//		process(f.Pixels, f.Number)
//	}
//
// Read blocks until one unit is pulled from the source; the read timeout
// of the source bounds the wait. A StreamReader is not safe for
// concurrent use.
package streamreader
