package main

import (
	"fmt"
	"time"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/spf13/cobra"

	"github.com/joshuapare/fixedheap/connstr"
	"github.com/joshuapare/fixedheap/heap"
	"github.com/joshuapare/fixedheap/sastoken"
)

var (
	sasTTL      time.Duration
	sasHeapSize int
	sasEpoch    int64
)

func init() {
	cmd := newSasCmd()
	cmd.Flags().DurationVar(&sasTTL, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().IntVar(&sasHeapSize, "heap-size", 2048, "Size of the heap used for parsing and scratch space")
	cmd.Flags().Int64Var(&sasEpoch, "epoch", -1, "Issue time in Unix seconds (default: now)")
	rootCmd.AddCommand(cmd)
}

func newSasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sas <connection-string>",
		Short: "Generate MQTT credentials from a device connection string",
		Long: `The sas command parses a device connection string into a small fixed
heap and derives the MQTT connection parameters, including a shared access
signature token used as the password. No memory outside the heap is used
for parsing or signing.

Example:
  heapctl sas "HostName=hub.azure-devices.net;DeviceId=dev1;SharedAccessKey=..."
  heapctl sas "$CONN" --ttl 24h --heap-size 1024
  heapctl sas "$CONN" --epoch 0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSas(args)
		},
	}
}

type mqttCredentials struct {
	HostName string `json:"host_name"`
	DeviceID string `json:"device_id"`
	ClientID string `json:"client_id"`
	UserName string `json:"user_name"`
	Server   string `json:"server"`
	Password string `json:"password"`
}

func runSas(args []string) error {
	h, err := heap.Init(dirtmake.Bytes(sasHeapSize, sasHeapSize), heapOptions())
	if err != nil {
		return err
	}
	cs, err := connstr.Parse(h, args[0])
	if err != nil {
		return err
	}
	defer cs.Close()

	host, _ := cs.Get("hostname")
	device, _ := cs.Get("deviceid")
	printVerbose("parsed %d keywords: %v\n", cs.Len(), cs.Keywords())

	gen := &sastoken.Generator{}
	if sasEpoch >= 0 {
		issued := time.Unix(sasEpoch, 0)
		gen.Now = func() time.Time { return issued }
	}

	// Token length depends on the encoding, so measure first.
	var token []byte
	for {
		n, err := gen.Generate(cs, sasTTL, token)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		if n <= len(token) {
			token = token[:n]
			break
		}
		token = make([]byte, n)
	}

	creds := mqttCredentials{
		HostName: host,
		DeviceID: device,
		ClientID: device,
		UserName: host + "/" + device,
		Server:   host,
		Password: string(token),
	}
	if jsonOut {
		return printJSON(creds)
	}
	printInfo("HostName = %s\n", creds.HostName)
	printInfo("DeviceId = %s\n", creds.DeviceID)
	printInfo("MQTT client id = %s\n", creds.ClientID)
	printInfo("MQTT user name = %s\n", creds.UserName)
	printInfo("MQTT server name = %s\n", creds.Server)
	printInfo("MQTT password = %s\n", creds.Password)
	return dumpVerbose(h)
}
