package engine

import "time"

// Info describes a finished transfer.
type Info struct {
	Code     int
	Length   int64 // -1 when the peer did not announce it
	Type     string
	Elapsed  time.Duration
	Received int64
}

func (i *Info) ResponseCode() (int, error)        { return i.Code, nil }
func (i *Info) LegacyResponseCode() (int, error)  { return i.Code, nil }
func (i *Info) ContentLength() (int64, error)     { return i.Length, nil }
func (i *Info) ContentType() (string, error)      { return i.Type, nil }
func (i *Info) TotalTime() (time.Duration, error) { return i.Elapsed, nil }
func (i *Info) BytesReceived() (int64, error)     { return i.Received, nil }
