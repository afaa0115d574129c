// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Transport is the duplex byte stream to the station. Read is called only
// by the session's reader goroutine and Write only under the session's
// write lock, so one may run concurrently with the other.
//
// A Read that times out should return (0, nil) or an error whose Timeout
// method reports true.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// HandshakeStep names a step of the initialization handshake
type HandshakeStep int

// Handshake steps, in order
const (
	StepRestartAP HandshakeStep = iota
	StepChannel
	StepDatamode
	StepAutoOff
	StepDevices
	StepAlive
	StepStartWifi
	StepQuitConfig
)

func (s HandshakeStep) String() string {
	switch s {
	case StepRestartAP:
		return "restart AP"
	case StepChannel:
		return "channel"
	case StepDatamode:
		return "datamode"
	case StepAutoOff:
		return "auto off"
	case StepDevices:
		return "device list"
	case StepAlive:
		return "alive"
	case StepStartWifi:
		return "start wifi"
	case StepQuitConfig:
		return "quit config"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// UniSensorDevice is one slot of the paired sensor table
type UniSensorDevice struct {
	ID   uint8
	Addr HardwareAddr
	Info *SensorInfo
}

// EmptyDevice returns an unpaired slot
func EmptyDevice() UniSensorDevice {
	return UniSensorDevice{ID: SensorIDUnset}
}

// Present reports whether a sensor is paired to the slot
func (d UniSensorDevice) Present() bool {
	return !d.Addr.IsNil()
}

// StationState holds the station settings reported during the handshake
type StationState struct {
	Channel  uint8
	Datamode uint8
	AutoOff  AutoOffResponse
}

// Config configures a Session
type Config struct {
	// HandshakeTimeout bounds each step of Begin and ListSensors
	HandshakeTimeout time.Duration

	// Logger receives session diagnostics. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: DefaultHandshakeTimeout,
		Logger:           logrus.StandardLogger(),
	}
}

// Session owns a transport to one station: a reader goroutine that routes
// every received line, serialized command writes, and the paired sensor
// table.
type Session struct {
	id        uuid.UUID
	cfg       Config
	log       logrus.FieldLogger
	transport Transport
	router    *Router

	writeMu sync.Mutex

	mu      sync.RWMutex
	devices [MaxUniSensorCount]UniSensorDevice
	station StationState

	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// NewSession starts the reader on t. The handshake is not run; see Begin
// and Open.
func NewSession(t Transport, cfg Config) *Session {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	id := uuid.New()
	s := &Session{
		id:        id,
		cfg:       cfg,
		log:       cfg.Logger.WithField("session", id.String()),
		transport: t,
		router:    NewRouter(),
		done:      make(chan struct{}),
		closing:   make(chan struct{}),
	}
	for i := range s.devices {
		s.devices[i] = EmptyDevice()
	}

	go s.readLoop()
	return s
}

// Open starts a session and runs the handshake. On failure the session is
// closed, which also closes t.
func Open(t Transport, cfg Config) (*Session, error) {
	s := NewSession(t, cfg)
	if err := s.Begin(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// ID returns the identifier attached to the session's log entries
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Router exposes the per-kind queues
func (s *Session) Router() *Router {
	return s.router
}

// SendCommand writes the command's text followed by a newline
func (s *Session) SendCommand(cmd Command) error {
	select {
	case <-s.closing:
		return ErrDisconnected
	default:
	}

	buf := cmd.Bytes()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := s.transport.Write(buf)
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", cmd.String(), err)
	}
	if n != len(buf) {
		return fmt.Errorf("sent %d of %d bytes of %q: %w", n, len(buf), cmd.String(), ErrWriteFailed)
	}

	s.log.WithField("command", cmd.String()).Debug("sent command")
	return nil
}

// The Await methods block until the next value of their kind arrives. The
// Timeout variants return a *TimeoutError when nothing arrives in time. Both
// return ErrDisconnected once the reader has stopped and the queue is empty.

// AwaitSensorInfo waits for the next _si reply
func (s *Session) AwaitSensorInfo() (SensorInfoResponse, error) {
	return s.router.SensorInfo.Recv()
}

// AwaitSensorInfoTimeout is AwaitSensorInfo bounded by d
func (s *Session) AwaitSensorInfoTimeout(d time.Duration) (SensorInfoResponse, error) {
	return s.router.SensorInfo.RecvTimeout(d)
}

// AwaitDevice waits for the next _dev reply
func (s *Session) AwaitDevice() (DeviceResponse, error) {
	return s.router.Device.Recv()
}

// AwaitDeviceTimeout is AwaitDevice bounded by d
func (s *Session) AwaitDeviceTimeout(d time.Duration) (DeviceResponse, error) {
	return s.router.Device.RecvTimeout(d)
}

// AwaitChannel waits for the next _ch reply
func (s *Session) AwaitChannel() (ChannelResponse, error) {
	return s.router.Channel.Recv()
}

// AwaitChannelTimeout is AwaitChannel bounded by d
func (s *Session) AwaitChannelTimeout(d time.Duration) (ChannelResponse, error) {
	return s.router.Channel.RecvTimeout(d)
}

// AwaitAutoOff waits for the next _auto_off reply
func (s *Session) AwaitAutoOff() (AutoOffResponse, error) {
	return s.router.AutoOff.Recv()
}

// AwaitAutoOffTimeout is AwaitAutoOff bounded by d
func (s *Session) AwaitAutoOffTimeout(d time.Duration) (AutoOffResponse, error) {
	return s.router.AutoOff.RecvTimeout(d)
}

// AwaitAcknowledge waits for the next _ok reply
func (s *Session) AwaitAcknowledge() (AcknowledgeResponse, error) {
	return s.router.Acknowledge.Recv()
}

// AwaitAcknowledgeTimeout is AwaitAcknowledge bounded by d
func (s *Session) AwaitAcknowledgeTimeout(d time.Duration) (AcknowledgeResponse, error) {
	return s.router.Acknowledge.RecvTimeout(d)
}

// AwaitDatamode waits for the next _datamode reply
func (s *Session) AwaitDatamode() (DatamodeResponse, error) {
	return s.router.Datamode.Recv()
}

// AwaitDatamodeTimeout is AwaitDatamode bounded by d
func (s *Session) AwaitDatamodeTimeout(d time.Duration) (DatamodeResponse, error) {
	return s.router.Datamode.RecvTimeout(d)
}

// AwaitData waits for the next telemetry datagram
func (s *Session) AwaitData() (DataResponse, error) {
	return s.router.Data.Recv()
}

// AwaitDataTimeout is AwaitData bounded by d
func (s *Session) AwaitDataTimeout(d time.Duration) (DataResponse, error) {
	return s.router.Data.RecvTimeout(d)
}

// AwaitError waits for the next line that failed to decode
func (s *Session) AwaitError() (ErrorResponse, error) {
	return s.router.Error.Recv()
}

// AwaitErrorTimeout is AwaitError bounded by d
func (s *Session) AwaitErrorTimeout(d time.Duration) (ErrorResponse, error) {
	return s.router.Error.RecvTimeout(d)
}

// Flush discards everything queued and returns how many values were dropped
func (s *Session) Flush() int {
	discarded := s.router.Flush()
	for _, resp := range discarded {
		s.log.WithField("kind", resp.Kind().String()).Debugf("discarding %+v", resp)
	}
	return len(discarded)
}

// Begin runs the initialization handshake. Each step waits at most
// Config.HandshakeTimeout; the first failure aborts with a *HandshakeError.
func (s *Session) Begin() error {
	timeout := s.cfg.HandshakeTimeout

	s.log.Info("restarting access point")
	if err := s.exchange(StepRestartAP, RestartAP(), timeout); err != nil {
		return err
	}

	ch, err := s.AwaitChannelTimeout(timeout)
	if err != nil {
		return &HandshakeError{Step: StepChannel, Err: err}
	}
	dm, err := s.AwaitDatamodeTimeout(timeout)
	if err != nil {
		return &HandshakeError{Step: StepDatamode, Err: err}
	}
	ao, err := s.AwaitAutoOffTimeout(timeout)
	if err != nil {
		return &HandshakeError{Step: StepAutoOff, Err: err}
	}

	s.mu.Lock()
	s.station = StationState{Channel: ch.Channel, Datamode: dm.Mode, AutoOff: ao}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"channel":  ch.Channel,
		"datamode": dm.Mode,
		"auto_off": ao.Duration(),
	}).Info("station settings received")

	if err := s.collectDevices(timeout); err != nil {
		return &HandshakeError{Step: StepDevices, Err: err}
	}

	s.log.Info("checking station is alive")
	if err := s.exchange(StepAlive, Alive(), timeout); err != nil {
		return err
	}

	s.log.Info("starting wifi")
	if err := s.exchange(StepStartWifi, StartWifi(), timeout); err != nil {
		return err
	}

	s.log.Info("leaving config mode")
	if err := s.exchange(StepQuitConfig, QuitConfig(), timeout); err != nil {
		return err
	}

	s.log.WithField("sensors", len(s.Sensors())).Info("handshake complete")
	return nil
}

// exchange sends cmd and waits for its acknowledge
func (s *Session) exchange(step HandshakeStep, cmd Command, timeout time.Duration) error {
	expected, _ := cmd.ExpectedAck()

	if err := s.SendCommand(cmd); err != nil {
		return &HandshakeError{Step: step, Err: err}
	}

	ack, err := s.AwaitAcknowledgeTimeout(timeout)
	if err != nil {
		return &HandshakeError{Step: step, Err: err}
	}
	if ack.Ack != expected {
		return &HandshakeError{Step: step, Err: &UnexpectedAckError{Expected: expected, Actual: ack.Ack}}
	}
	return nil
}

// collectDevices reads one Device reply per table slot
func (s *Session) collectDevices(timeout time.Duration) error {
	for i := 0; i < MaxUniSensorCount; i++ {
		dev, err := s.AwaitDeviceTimeout(timeout)
		if err != nil {
			return fmt.Errorf("device %d of %d: %w", i+1, MaxUniSensorCount, err)
		}
		s.ApplyDevice(dev)
	}
	return nil
}

// ApplyDevice records a Device reply in the sensor table. A nil address
// clears the slot. Ids outside the table are logged and ignored.
func (s *Session) ApplyDevice(dev DeviceResponse) bool {
	if int(dev.ID) >= MaxUniSensorCount {
		s.log.WithField("id", dev.ID).Warn("ignoring device with out of range id")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dev.Addr.IsNil() {
		s.devices[dev.ID] = EmptyDevice()
		return true
	}

	slot := &s.devices[dev.ID]
	if slot.Addr != dev.Addr {
		slot.Info = nil
	}
	slot.ID = dev.ID
	slot.Addr = dev.Addr

	s.log.WithFields(logrus.Fields{"id": dev.ID, "addr": dev.Addr.String()}).Debug("sensor paired")
	return true
}

// Station returns the settings reported during the handshake
func (s *Session) Station() StationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.station
}

// Sensors returns a copy of every paired slot, in id order
func (s *Session) Sensors() []UniSensorDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sensors []UniSensorDevice
	for _, d := range s.devices {
		if d.Present() {
			sensors = append(sensors, copyDevice(d))
		}
	}
	return sensors
}

// Device returns the slot for id. Ids outside the table return an empty
// slot.
func (s *Session) Device(id uint8) UniSensorDevice {
	if int(id) >= MaxUniSensorCount {
		return EmptyDevice()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDevice(s.devices[id])
}

func copyDevice(d UniSensorDevice) UniSensorDevice {
	if d.Info != nil {
		info := *d.Info
		d.Info = &info
	}
	return d
}

// Update waits for the next datagram and pairs it with its sensor slot
func (s *Session) Update() (UniSensorDevice, Datagram, error) {
	resp, err := s.AwaitData()
	if err != nil {
		return UniSensorDevice{}, Datagram{}, err
	}
	return s.deviceFor(resp.Datagram), resp.Datagram, nil
}

// UpdateTimeout is Update bounded by d
func (s *Session) UpdateTimeout(d time.Duration) (UniSensorDevice, Datagram, error) {
	resp, err := s.AwaitDataTimeout(d)
	if err != nil {
		return UniSensorDevice{}, Datagram{}, err
	}
	return s.deviceFor(resp.Datagram), resp.Datagram, nil
}

func (s *Session) deviceFor(dg Datagram) UniSensorDevice {
	if int(dg.ID) >= MaxUniSensorCount {
		s.log.WithField("id", dg.ID).Warn("datagram from out of range sensor id")
	}
	return s.Device(dg.ID)
}

// ListSensors asks the station for its pairing table and applies the reply
func (s *Session) ListSensors(timeout time.Duration) ([]UniSensorDevice, error) {
	s.Flush()
	if err := s.SendCommand(ListSensor()); err != nil {
		return nil, err
	}
	if err := s.collectDevices(timeout); err != nil {
		return nil, err
	}
	return s.Sensors(), nil
}

// RequestSensorInfo asks for a sensor's configuration and stores the reply
// in the sensor table. Replies for unpaired slots are returned but not
// stored: the address they carry is the station's, not the sensor's.
func (s *Session) RequestSensorInfo(id uint8, timeout time.Duration) (SensorInfoResponse, error) {
	if err := s.SendCommand(RequestSensorInfo(id)); err != nil {
		return SensorInfoResponse{}, err
	}

	resp, err := s.AwaitSensorInfoTimeout(timeout)
	if err != nil {
		return SensorInfoResponse{}, err
	}
	s.applySensorInfo(resp)
	return resp, nil
}

func (s *Session) applySensorInfo(resp SensorInfoResponse) {
	if int(resp.ID) >= MaxUniSensorCount {
		s.log.WithField("id", resp.ID).Warn("ignoring sensor info with out of range id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot := &s.devices[resp.ID]
	if !slot.Present() {
		s.log.WithField("id", resp.ID).Debug("sensor info for unpaired slot not stored")
		return
	}
	info := resp.Info
	slot.Info = &info
}

// Done is closed when the reader has stopped
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the reader, if any. It is nil while
// the reader runs and after a clean Close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Close closes every queue and the transport. It is safe to call more than
// once; only the first call returns the transport's close error.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)
		s.router.Close()
		err = s.transport.Close()
		s.log.Debug("session closed")
	})
	return err
}
