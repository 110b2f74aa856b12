// Package dba exposes the cluster-administration façade installed as the
// global `dba` module. The façade validates names, arity, and option sets;
// the operations themselves are delegated to a Provisioner so the core
// stays free of sandbox and metadata plumbing.
package dba

import (
	"fmt"
	"strings"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/logger"
	"github.com/SandeepSethia/mysql-shell/internal/mysqlx"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Provisioner performs the actual administrative work behind the façade.
// Implementations run the metadata SQL or drive sandbox processes; the
// NullProvisioner used by default reports every operation as unavailable.
type Provisioner interface {
	CreateCluster(name string, opts ClusterOptions) error
	DropMetadataSchema() error
	Sandbox(op string, port int) error
	ConfigureLocalInstance(path string) error
	RebootCluster(name string) error
}

// ClusterOptions carries the validated createCluster options.
type ClusterOptions struct {
	MemberSSLMode string // AUTO, DISABLED, or REQUIRED; empty when unset
	AdoptFromGR   bool
	IPWhitelist   string
}

// NullProvisioner rejects every operation; it backs the façade when no
// metadata session is configured.
type NullProvisioner struct{}

func (NullProvisioner) CreateCluster(string, ClusterOptions) error { return errNotAvailable }
func (NullProvisioner) DropMetadataSchema() error                  { return errNotAvailable }
func (NullProvisioner) Sandbox(string, int) error                  { return errNotAvailable }
func (NullProvisioner) ConfigureLocalInstance(string) error        { return errNotAvailable }
func (NullProvisioner) RebootCluster(string) error                 { return errNotAvailable }

var errNotAvailable = errs.New(errs.KindInternal, "", "Dba operations are not available without a metadata session")

// Dba is the bridge installed as the global `dba` module.
type Dba struct {
	*shcore.MemberRegistry

	prov    Provisioner
	session *mysqlx.Session
	verbose bool
}

// New builds the dba façade. prov may be nil, in which case every
// operation beyond validation fails cleanly.
func New(prov Provisioner) *Dba {
	if prov == nil {
		prov = NullProvisioner{}
	}
	d := &Dba{prov: prov}
	d.MemberRegistry = shcore.NewMemberRegistry("Dba", nil)

	d.AddMethod("createCluster", d.createClusterMember)
	d.AddMethod("deleteSandboxInstance", d.sandboxMember("deleteSandboxInstance", "delete"))
	d.AddMethod("deploySandboxInstance", d.sandboxMember("deploySandboxInstance", "deploy"))
	d.AddMethod("getCluster", d.getClusterMember)
	d.AddMethod("help", d.helpMember)
	d.AddMethod("killSandboxInstance", d.sandboxMember("killSandboxInstance", "kill"))
	d.AddMethod("resetSession", d.resetSessionMember)
	d.AddMethod("startSandboxInstance", d.sandboxMember("startSandboxInstance", "start"))
	d.AddMethod("checkInstanceConfiguration", d.checkInstanceMember)
	d.AddMethod("stopSandboxInstance", d.sandboxMember("stopSandboxInstance", "stop"))
	d.AddMethod("dropMetadataSchema", d.dropMetadataMember)
	d.AddMethod("configureLocalInstance", d.configureLocalMember)
	d.AddProperty("verbose", func() (shcore.Value, error) {
		return shcore.BoolValue(d.verbose), nil
	})
	d.AddMethod("rebootClusterFromCompleteOutage", d.rebootMember)
	return d
}

// --- createCluster ---

var sslModes = []string{"AUTO", "DISABLED", "REQUIRED"}

func (d *Dba) createClusterMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.createCluster"
	if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if name == "" {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "The Cluster name cannot be empty")
	}

	var opts ClusterOptions
	adoptSet := false
	if len(args) == 2 {
		dict, err := shcore.MapAt(api, args, 2)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		var unknown []string
		for _, key := range dict.Keys() {
			v, _ := dict.Get(key)
			switch key {
			case "memberSslMode":
				mode, err := v.AsString()
				if err != nil || !validSSLMode(mode) {
					return shcore.UndefinedValue(), errs.Newf(errs.KindArgument, api,
						"Invalid value for memberSslMode option. Supported values: %s.", strings.Join(sslModes, ","))
				}
				opts.MemberSSLMode = mode
			case "adoptFromGR":
				adopt, err := v.AsBool()
				if err != nil {
					return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Invalid value for adoptFromGR option: bool expected")
				}
				opts.AdoptFromGR = adopt
				adoptSet = true
			case "ipWhitelist":
				list, err := v.AsString()
				if err != nil || list == "" {
					return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Invalid value for ipWhitelist option: string value cannot be empty.")
				}
				opts.IPWhitelist = list
			default:
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			return shcore.UndefinedValue(), errs.Newf(errs.KindArgument, api,
				"Invalid values in the options: %s", errs.JoinKeys(unknown))
		}
		if opts.MemberSSLMode != "" && adoptSet && opts.AdoptFromGR {
			return shcore.UndefinedValue(), errs.New(errs.KindArgument, api,
				"Cannot use memberSslMode option if adoptFromGR is set to true.")
		}
	}

	if err := d.prov.CreateCluster(name, opts); err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	logger.Info("cluster created")
	return shcore.ObjectValue(newCluster(name)), nil
}

func validSSLMode(mode string) bool {
	for _, m := range sslModes {
		if mode == m {
			return true
		}
	}
	return false
}

// --- remaining façade members ---

func (d *Dba) getClusterMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.getCluster"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name := "default"
	if len(args) == 1 {
		n, err := shcore.StringAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		if n == "" {
			return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "The Cluster name cannot be empty")
		}
		name = n
	}
	return shcore.ObjectValue(newCluster(name)), nil
}

// sandboxMember builds the shared (port[, options]) validator for the
// sandbox lifecycle operations.
func (d *Dba) sandboxMember(name, op string) func(args []shcore.Value) (shcore.Value, error) {
	return func(args []shcore.Value) (shcore.Value, error) {
		api := "Dba." + name
		if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
			return shcore.UndefinedValue(), err
		}
		port, err := shcore.UintAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		if port == 0 || port > 65535 {
			return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Invalid value for the port: must be between 1 and 65535")
		}
		if len(args) == 2 {
			if _, err := shcore.MapAt(api, args, 2); err != nil {
				return shcore.UndefinedValue(), err
			}
		}
		if err := d.prov.Sandbox(op, int(port)); err != nil {
			return shcore.UndefinedValue(), errs.WithAPI(api, err)
		}
		return shcore.UndefinedValue(), nil
	}
}

func (d *Dba) helpMember(args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount("Dba.help", args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	var sb strings.Builder
	sb.WriteString("The dba module handles InnoDB cluster administration.\n\n")
	for _, name := range d.Members() {
		fmt.Fprintf(&sb, "  %s\n", name)
	}
	return shcore.StringValue(sb.String()), nil
}

// SetSession attaches the metadata session used by resetSession.
func (d *Dba) SetSession(s *mysqlx.Session) { d.session = s }

func (d *Dba) resetSessionMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.resetSession"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(args) == 1 {
		obj, err := args[0].AsObject()
		if err != nil {
			return shcore.UndefinedValue(), errs.Argument(api, 1, "session object")
		}
		s, ok := obj.(*mysqlx.Session)
		if !ok {
			return shcore.UndefinedValue(), errs.Argument(api, 1, "session object")
		}
		d.session = s
	} else {
		d.session = nil
	}
	return shcore.UndefinedValue(), nil
}

func (d *Dba) checkInstanceMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.checkInstanceConfiguration"
	if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	if args[0].Type() != shcore.String && args[0].Type() != shcore.Map {
		return shcore.UndefinedValue(), errs.Argument(api, 1, "string or map")
	}
	report := shcore.NewMapValue()
	report.Set("status", shcore.StringValue("unknown"))
	return shcore.NewMap(report), nil
}

func (d *Dba) dropMetadataMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.dropMetadataSchema"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := d.prov.DropMetadataSchema(); err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.UndefinedValue(), nil
}

func (d *Dba) configureLocalMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.configureLocalInstance"
	if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	path, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := d.prov.ConfigureLocalInstance(path); err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.UndefinedValue(), nil
}

func (d *Dba) rebootMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Dba.rebootClusterFromCompleteOutage"
	if err := shcore.EnsureCount(api, args, 0, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	name := "default"
	if len(args) >= 1 {
		n, err := shcore.StringAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		name = n
	}
	if err := d.prov.RebootCluster(name); err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(newCluster(name)), nil
}

// --- Cluster bridge ---

// Cluster is the bridge returned by createCluster and getCluster.
type Cluster struct {
	*shcore.MemberRegistry
	name string
}

func newCluster(name string) *Cluster {
	c := &Cluster{name: name}
	c.MemberRegistry = shcore.NewMemberRegistry("Cluster", func() string {
		return fmt.Sprintf("<Cluster:%s>", c.name)
	})
	c.AddProperty("name", func() (shcore.Value, error) {
		return shcore.StringValue(c.name), nil
	})
	return c
}

// Name returns the cluster name.
func (c *Cluster) Name() string { return c.name }
