// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// vbufinfo prints the physical devices visible to the Vulkan loader
// and the capabilities vbuf derives from the selected one, as JSON.
//
// Configuration comes from the environment (or a .env file):
//
//	VBUF_DEBUG=1   enable the validation layer
//	VBUF_DEVICE=0  physical device index
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vbuf/gfx"
	"github.com/devblok/vbuf/vkr"
)

type report struct {
	Devices    []vkr.PhysicalDeviceInfo
	APIVersion gfx.Version
	Extensions []string
}

func main() {
	// A missing .env file is fine, the environment still applies.
	godotenv.Load()

	deviceIndex, err := strconv.Atoi(envy.Get("VBUF_DEVICE", "0"))
	if err != nil {
		log.Fatalf("VBUF_DEVICE: %s", err)
	}
	cfg := vkr.Config{
		DebugMode:   envy.Get("VBUF_DEBUG", "") != "",
		DeviceIndex: deviceIndex,
	}

	dev, err := vkr.New(vkr.DefaultApplicationInfo, cfg)
	if err != nil {
		log.Fatalf("vkr.New(): %s", err)
	}
	defer dev.Release()

	out, err := json.MarshalIndent(report{
		Devices:    dev.PhysicalDevicesInfo(),
		APIVersion: dev.APIVersion(),
		Extensions: dev.Extensions(),
	}, "", "  ")
	if err != nil {
		log.Fatalf("json.Marshal(): %s", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
