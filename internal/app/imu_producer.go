package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_panel/internal/config"
	"github.com/relabs-tech/orientation_panel/internal/orientation"
)

// imuMessage is the sensor_msgs/Imu wire shape, trimmed to the fields the
// panel reads plus zeroed rates so the payload looks like the real thing.
type imuMessage struct {
	Orientation     orientation.Quaternion `json:"orientation"`
	AngularVelocity vector3                `json:"angular_velocity"`
	LinearAccel     vector3                `json:"linear_acceleration"`
}

// odomMessage is the nav_msgs/Odometry wire shape down to
// pose.pose.orientation.
type odomMessage struct {
	Pose struct {
		Pose struct {
			Position    vector3                `json:"position"`
			Orientation orientation.Quaternion `json:"orientation"`
		} `json:"pose"`
	} `json:"pose"`
}

type vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RunImuProducer publishes simulated orientation streams: an Imu-shaped
// message on PRODUCER_TOPIC_IMU and an Odometry-shaped one on
// PRODUCER_TOPIC_ODOM, so a running system exercises two different
// message shapes at once.
func RunImuProducer() error {
	log.Println("starting orientation-panel simulated producer")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Println("connected to MQTT, starting publish loop")

	imuSrc := orientation.NewSimSource(20, 15, 30)
	odomSrc := orientation.NewSimSource(35, 8, -12)

	ticker := time.NewTicker(time.Duration(cfg.ProducerInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if cfg.ProducerTopicIMU != "" {
			pose, err := imuSrc.Next()
			if err != nil {
				log.Printf("sim source error: %v", err)
				continue
			}
			var msg imuMessage
			msg.Orientation = orientation.FromPose(pose)
			publishJSON(client, cfg.ProducerTopicIMU, msg)
		}

		if cfg.ProducerTopicOdom != "" {
			pose, err := odomSrc.Next()
			if err != nil {
				log.Printf("sim source error: %v", err)
				continue
			}
			var msg odomMessage
			msg.Pose.Pose.Orientation = orientation.FromPose(pose)
			publishJSON(client, cfg.ProducerTopicOdom, msg)
		}
	}
	return nil
}

func publishJSON(client mqtt.Client, topic string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("json marshal error (%s): %v", topic, err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}
