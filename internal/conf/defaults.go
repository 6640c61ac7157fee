package conf

import "github.com/spf13/viper"

// setDefaults mirrors the teacher's setDefaultConfig: every recognised
// option in §4.12 gets a neutral default so a worker can start from an
// empty config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("main.name", "stagehand")

	v.SetDefault("microphone.microphonedevice", 0)
	v.SetDefault("microphone.debugdump", false)

	v.SetDefault("script.path", "script.json")

	v.SetDefault("camera.brightness", 50)
	v.SetDefault("camera.exposure", 50)
	v.SetDefault("camera.contrast", 50)
	v.SetDefault("camera.saturation", 50)
	v.SetDefault("camera.mirrorx", false)
	v.SetDefault("camera.mirrory", false)
	v.SetDefault("camera.rotation", 0)
	v.SetDefault("camera.clahe", false)
	v.SetDefault("camera.clahecliplimit", 50)
	v.SetDefault("camera.resolution", []int{1280, 720})
	v.SetDefault("camera.videodevicepos", 0)

	v.SetDefault("stagezone.enablehomography", true)
	v.SetDefault("stagezone.enablecrop", false)
	v.SetDefault("stagezone.homographywidth", 10.0)
	v.SetDefault("stagezone.homographyheight", 6.0)

	v.SetDefault("performertracker.userfolder", "data/users")
	v.SetDefault("performertracker.uncertainfolder", "data/uncertain")
	v.SetDefault("performertracker.saveinterval", 30)
	v.SetDefault("performertracker.maxpan", 540.0)
	v.SetDefault("performertracker.maxtilt", 270.0)
	v.SetDefault("performertracker.lightnodeport", 6454) // Art-Net default port
	v.SetDefault("performertracker.lightuniverseid", 0)
	v.SetDefault("performertracker.logginglevel", "info")
	v.SetDefault("performertracker.showwindow", false)

	v.SetDefault("mqtt.enabled", true)
	v.SetDefault("mqtt.clientid", "stagehand")
	v.SetDefault("mqtt.topic", "local_server")

	v.SetDefault("statusserver.enabled", true)
	v.SetDefault("statusserver.listen", ":8090")

	v.SetDefault("controlsocket", "/tmp/stagehand.sock")
}

const defaultConfigYAML = `# stagehand configuration
main:
  name: stagehand

microphone:
  microphonedevice: 0
  debugdump: false

script:
  path: script.json

camera:
  brightness: 50
  exposure: 50
  contrast: 50
  saturation: 50
  mirrorx: false
  mirrory: false
  rotation: 0
  clahe: false
  claheCliplimit: 50
  resolution: [1280, 720]
  videodevicepos: 0

stagezone:
  enablehomography: true
  enablecrop: false
  homographywidth: 10.0
  homographyheight: 6.0
  srcpoints:
    - [0, 0]
    - [1280, 0]
    - [1280, 720]
    - [0, 720]

performertracker:
  userfolder: data/users
  uncertainfolder: data/uncertain
  saveinterval: 30
  trackeduserid: user_1
  lightcoords: [0, 0, 5]
  maxpan: 540.0
  maxtilt: 270.0
  lightnodeip: 127.0.0.1
  lightnodeport: 6454
  lightuniverseid: 0
  logginglevel: info
  showwindow: false

mqtt:
  enabled: true
  clientid: stagehand
  topic: local_server

statusserver:
  enabled: true
  listen: ":8090"

controlsocket: /tmp/stagehand.sock
`
