// Package inspection turns a set of controllers into a live HTTP server so
// that their state, command status, and recent transitions can be inspected
// from a browser while the application runs.
package inspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/davidchow24/simple-controller/ctrl"
	"github.com/davidchow24/simple-controller/inspection/web"
	"github.com/davidchow24/simple-controller/tracing"
)

// Inspector can turn a set of controllers into a server and allows external
// inspection of their state.
type Inspector struct {
	controllers []ctrl.Controller
	feed        *tracing.MemTracer
	portNumber  int
	openBrowser bool
}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// WithPortNumber sets the port number of the inspector.
func (i *Inspector) WithPortNumber(portNumber int) *Inspector {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the inspection server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	i.portNumber = portNumber

	return i
}

// WithBrowserOpen makes StartServer open the inspection page in the default
// browser.
func (i *Inspector) WithBrowserOpen() *Inspector {
	i.openBrowser = true
	return i
}

// RegisterController registers a controller to be inspected.
func (i *Inspector) RegisterController(c ctrl.Controller) {
	i.controllers = append(i.controllers, c)
}

// RegisterTransitionFeed registers the memory tracer that serves the recent
// transition list.
func (i *Inspector) RegisterTransitionFeed(t *tracing.MemTracer) {
	i.feed = t
}

// StartServer starts the inspector as a web server with a custom port if
// wanted.
func (i *Inspector) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/controllers", i.listControllers)
	r.HandleFunc("/api/controller/{name}", i.listControllerDetails)
	r.HandleFunc("/api/field/{json}", i.listFieldValue)
	r.HandleFunc("/api/commands/{name}", i.listCommandStatuses)
	r.HandleFunc("/api/transitions", i.listTransitions)
	r.HandleFunc("/api/resource", i.listResources)
	r.HandleFunc("/api/profile", i.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if i.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(i.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Inspecting controllers with %s\n", url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if i.openBrowser {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
		}
	}
}

func (i *Inspector) listControllers(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for n, c := range i.controllers {
		if n > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", c.Name())
	}
	fmt.Fprint(w, "]")
}

func (i *Inspector) listControllerDetails(
	w http.ResponseWriter,
	r *http.Request,
) {
	name := mux.Vars(r)["name"]

	controller := i.findControllerOr404(w, name)
	if controller == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(controller)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	ControllerName string `json:"controller_name,omitempty"`
	FieldName      string `json:"field_name,omitempty"`
}

func (i *Inspector) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	fields := strings.Split(req.FieldName, ".")

	controller := i.findControllerOr404(w, req.ControllerName)
	if controller == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(controller)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type commandStatusProvider interface {
	CommandStatuses() []ctrl.CommandStatus
}

func (i *Inspector) listCommandStatuses(
	w http.ResponseWriter,
	r *http.Request,
) {
	name := mux.Vars(r)["name"]

	controller := i.findControllerOr404(w, name)
	if controller == nil {
		return
	}

	provider, ok := controller.(commandStatusProvider)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bytes, err := json.Marshal(provider.CommandStatuses())
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (i *Inspector) listTransitions(w http.ResponseWriter, r *http.Request) {
	if i.feed == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No transition feed registered"))
		dieOnErr(err)

		return
	}

	limit := 100
	limitStr := r.URL.Query().Get("limit")
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}
		limit = parsed
	}

	transitions := i.feed.Recent(limit)
	if transitions == nil {
		transitions = []tracing.Transition{}
	}

	bytes, err := json.Marshal(transitions)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (i *Inspector) findControllerOr404(
	w http.ResponseWriter,
	name string,
) ctrl.Controller {
	var controller ctrl.Controller
	for _, c := range i.controllers {
		if c.Name() == name {
			controller = c
		}
	}

	if controller == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Controller not found"))
		dieOnErr(err)
	}

	return controller
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (i *Inspector) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (i *Inspector) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
