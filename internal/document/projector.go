package document

import "github.com/KevinKickass/ScriptSynth/internal/types"

// Project maps a run configuration to its canonical document. It never
// mutates cfg and never fails.
func Project(cfg types.RunConfiguration) *Document {
	doc := &Document{
		TestName:          cfg.TestName,
		SamplingFrequency: cfg.SamplingFrequency,
		Metadata:          cfg.Metadata,
		Output:            projectOutput(cfg.Outputs),
		Hardware:          make([]Hardware, 0, len(cfg.Hardware)),
		Commands:          make([]Command, 0, len(cfg.Commands)),
	}

	for _, h := range cfg.Hardware {
		doc.Hardware = append(doc.Hardware, projectHardware(h))
	}

	for _, c := range cfg.Commands {
		doc.Commands = append(doc.Commands, Command{
			Time:    c.Time,
			Port:    c.Port,
			Baud:    c.Baud,
			Command: c.Command,
		})
	}

	return doc
}

func projectOutput(o types.OutputSinkSet) Output {
	out := Output{
		CSV:     o.CSVEnabled,
		Chronos: o.ChronosEnabled,
	}
	if o.InfluxEnabled {
		out.InfluxDB = &Influx{
			Host:     o.Influx.Host,
			Port:     o.Influx.Port,
			Database: o.Influx.Database,
			Bucket:   o.Influx.Bucket,
			User:     o.Influx.User,
			Password: o.Influx.Password,
		}
	}
	return out
}

func projectHardware(h types.HardwareEntry) Hardware {
	channels := h.Channels.Entries()
	fields := h.Fields()

	out := Hardware{
		Name:     string(h.Kind()),
		Channels: make([]Pair, 0, len(channels)),
		Fields:   make([]Pair, 0, len(fields)),
	}
	for _, ch := range channels {
		out.Channels = append(out.Channels, Pair{Key: ch.Label, Value: ch.Identifier})
	}
	for _, f := range fields {
		out.Fields = append(out.Fields, Pair{Key: f.Name, Value: f.Value})
	}
	return out
}
